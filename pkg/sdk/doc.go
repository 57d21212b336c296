// Package smartsearch is an in-process Go client for turning natural
// language into structured Elasticsearch bool queries.
//
// The client runs the same generation pipeline as the smartsearch service:
// a language model proposes a query, the query is normalized under a
// mandatory document-type filter and checked against a closed schema, and
// the search terms are harvested from the result. No search backend is
// needed.
//
//	client, _ := smartsearch.New(
//	    smartsearch.WithOpenAI(os.Getenv("OPENAI_API_KEY"), "", "gpt-4o-mini"),
//	)
//	res, err := client.Generate(ctx, "direito eleitoral depois de 2010")
//	if errors.Is(err, smartsearch.ErrQueryNotUnderstood) {
//	    // three attempts failed
//	}
//	fmt.Println(res.SearchTerms)
//
// Validation and term extraction work without a language model:
//
//	ok, _ := client.Validate(raw)
//	terms, _ := client.ExtractTerms(raw)
package smartsearch
