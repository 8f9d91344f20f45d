// Package imagedex is the embedded Go client for the image similarity
// engine. It wires the store, embedder and services in-process, without
// the HTTP layer:
//
//	client, err := imagedex.New(ctx,
//	    imagedex.WithValkey("localhost:6379", ""),
//	    imagedex.WithEmbedder(myEmbedder),
//	)
//	if err != nil { ... }
//	defer client.Close()
//
//	receipt, err := client.Index(ctx, imageBytes, "rig-42")
//	matches, err := client.Search(ctx, imageBytes, nil)
package imagedex
