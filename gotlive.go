// Package gotlive translates the visible text of a live HTML document in
// place.
//
// An Engine extracts deduplicated segments from a dom.Document, serves what
// it can from a per-language memo, asks an AIProvider for the rest in small
// sequential batches, and patches the results back onto the tree. Every call
// to Translate starts a new epoch; only the newest epoch may write to the
// document or publish a status, so switching languages while a request is in
// flight never leaves two languages on the page. Selecting the default
// language restores the original text byte for byte.
//
// Basic usage:
//
//	doc, _ := dom.Parse(page)
//	p := provider.NewOpenAIProvider(provider.OpenAIConfig{
//	    APIKey: os.Getenv("OPENAI_API_KEY"),
//	})
//
//	engine := gotlive.NewEngine(doc, p, gotlive.WithDefaultLanguage("en"))
//	defer engine.Close()
//
//	result, err := engine.Translate(ctx, "fr_FR")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Status) // translated
//
// After the first pass the engine keeps watching the document; content added
// through the dom.Document API is translated after a short debounce.
package gotlive
