// Package filesearch embeds the file search service in a Go program:
// PDFs are ingested into a remote Gemini File Search store and questions
// are answered against them with citations.
//
// Records live in Redis or Postgres; uploaded files are kept on local disk.
//
//	client, _ := filesearch.New(ctx,
//	    filesearch.WithRedis("localhost:6379", ""),
//	    filesearch.WithGemini(os.Getenv("GEMINI_API_KEY")),
//	)
//	defer client.Close()
//
//	rec, _ := client.Records("alice").UploadFile(ctx, "guide.pdf", "User guide")
//	ans, _ := client.Queries("alice").Ask(ctx, "How do I reset it?", rec.ID)
//	fmt.Println(ans.Text, ans.Sources)
package filesearch
