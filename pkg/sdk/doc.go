// Package docuchat provides a Go client for the docuchat HTTP API.
//
// A session is one conversation over one document: upload a document,
// then ask questions about it.
//
//	client := docuchat.New("http://localhost:8080", docuchat.WithAPIKey("secret"))
//	sess, _ := client.CreateSession(ctx)
//	_, _ = client.Ingest(ctx, sess.ID, "report.pdf", data, nil)
//	answer, _ := client.Ask(ctx, sess.ID, "What is the report about?")
package docuchat
