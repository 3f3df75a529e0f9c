/*
Package dsl provides a Go DSL for programmatically constructing questionnaires.

It builds the same questionnaire.json document the editor exports, using a fluent
builder instead of hand-written JSON. This is useful for seeding templates, unit
testing and generating questionnaires from other data.

Example usage:

	b := dsl.New()

	b.Add("1").
		Question("Do you smoke?").
		YesNo().
		Required().
		Yes("2").
		No("3")

	b.Add("2").
		Question("How many per day?").
		Go("3")

	b.Add("3").
		Question("Preferred contact").
		Choice(domain.QuestionRadio, "Phone", "Email")

	doc, err := b.Build()
	// ... pass document.Export(doc) to Editor.Import or write it to questionnaire.json
*/
package dsl
