// Command lattice runs the questionnaire editor as an HTTP API or MCP server and
// inspects exported questionnaire.json documents.
package main

func main() {
	Execute()
}
