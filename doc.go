/*
Package lattice is a questionnaire graph editor.

A questionnaire is a directed graph: question nodes carry the question text, its
type and options, and edges route each answer (an option, yes/no, all selected or
any text) to the next question. Lattice keeps that graph, resolves where every
answer navigates, places new nodes on a canvas, imports and exports the portable
questionnaire.json document, keeps local drafts and publishes questionnaires to a
remote scenario service.

# Usage

A Workspace wires the stores and the remote service together and hands out
editors:

	ws, err := lattice.New(lattice.WithStore(file.New(".lattice/store")))
	if err != nil {
		log.Fatal(err)
	}
	defer ws.Close()

	e := ws.NewEditor()
	_, err = e.AddQuestion(ctx, editor.AddQuestionInput{
		Kind: editor.AddWithMetadata,
		Metadata: domain.MetadataInput{
			TemplateName:  "Intake",
			FacilityTypes: []string{"Hospital"},
			ServiceLines:  []string{"Cardiology"},
		},
	})
	id, err := e.CommitQuestion(domain.NodeData{Question: "Do you smoke?", QuestionType: domain.QuestionYesNo})
	res, err := e.Save(ctx)

The same editors are served over HTTP (pkg/adapters/http) and MCP
(pkg/adapters/mcp), with sessions persisted by pkg/session.
*/
package lattice
