/*
Package povrewrite rewrites character cards from second or third person into first person using a single LLM completion.

The library is built around two pure functions and the glue between them:

  - prompt.Build renders the selected fields of a card into a prompt.
  - normalize.Normalize recovers a JSON object from whatever the model answered, and
    reconcile.Reconcile turns it into a PartialDocument holding only the selected fields,
    with the character and user names folded back into {{char}} and {{user}}.

The Engine wires these to a Completer (any OpenAI-compatible endpoint), an optional
DocumentStore to load and commit cards (memory, Redis, or a Loam markdown library), a
Locker that keeps one rewrite per card in flight, and a Confirmer that reviews the
rewritten fields before they are merged.

# Usage

	engine, err := povrewrite.New(
		povrewrite.WithCompleter(openai.New(baseURL, model, apiKey)),
		povrewrite.WithStore(memory.NewStore()),
	)
	if err != nil {
		log.Fatal(err)
	}

	settings := config.Default()
	settings.ShowPreview = false

	res, err := engine.Rewrite(ctx, povrewrite.Request{
		DocumentID: "anna",
		Settings:   settings,
		UserName:   "Bob",
	})
	fmt.Println(res.Outcome.Message)

# Cancellation

Pass a cancel.Token in the Request and call Abort from any goroutine. The in-flight
completion is not interrupted; its result is discarded when it returns and the outcome
is "aborted".
*/
package povrewrite
