// Package pkg provides the core libraries for rendering notebook
// outputs onto tiled display canvases.
//
// # Overview
//
// ovecast turns captured notebook cell outputs into positioned canvas
// sections: each output is classified, formatted into a servable
// document, persisted as an asset, and registered with the canvas
// service. The pkg directory is organized into four main areas:
//
//  1. [layout], [content] - Domain logic (placement, classification, formatting)
//  2. [asset], [session] - Local state (asset store, session registries)
//  3. [canvas] - External API client for the canvas service
//  4. [pipeline], [server] - Orchestration and the HTTP surface
//
// # Architecture
//
// The typical data flow through ovecast:
//
//	Captured cell outputs
//	         |
//	    [layout] package (validate placement, resolve the cell rectangle)
//	         |
//	    [content] package (classify and format each output)
//	         |
//	    [asset] package (persist documents under deterministic names)
//	         |
//	    [canvas] package (register sections with the canvas service)
//	         |
//	    project.json / controller.html / overview.html
//
// # Quick Start
//
//	store, _ := asset.NewStore(".ovecast", "http://localhost:8000")
//	client := canvas.NewClient("http://localhost:8080", config.ModeProduction, logger)
//	runner := pipeline.NewRunner(client, store, logger)
//	sess, _ := runner.Start(ctx, session.Config{Space: "LocalNine", Rows: 2, Cols: 2})
//	results, _ := runner.RenderCell(ctx, sess, args, outputs)
package pkg
