// Package drivekit turns annotated Go service declarations into calls against
// a document-storage drive.
//
// A service is a struct of func fields. Struct tags on each field describe the
// operation, the item path template and how parameters bind to the request.
// [Client.Create] fills every field with a proxy that builds a [Request], hands
// it to the configured [Driver] and converts the result into the declared
// return type. Nothing runs until the returned [Call] is executed.
//
// # Declaring a Service
//
//	type Notes struct {
//		Save func(name string, n Note) *drivekit.Call[drivekit.ResourceID] `create:"notes/{name}" params:"path:name, body" mime:"application/json"`
//		Load func(name string) *drivekit.Call[*Note]                       `read:"notes/{name}?match=exact" params:"path:name" mime:"application/json"`
//		Find func(prefix string) *drivekit.Call[[]drivekit.Item]           `read:"notes/{prefix}" params:"path:prefix"`
//	}
//
// The operation tag is one of create, read, update or delete and carries the
// path template. Every parameter needs one entry in the params tag:
//
//   - path:NAME replaces {NAME} in the template, escaped unless written as
//     path:NAME:encoded
//   - body converts the argument into the item content
//
// The last path segment is the item title and the segments before it name the
// folder. A read matches titles by substring unless the template ends in
// ?match=exact.
//
// # Executing Calls
//
//	client, err := drivekit.NewBuilder(memory.New()).
//		BaseScope(drivekit.ScopeAppFolder).
//		AddConverterFactory(jsonconv.New()).
//		Build()
//
//	var notes Notes
//	if err := client.Create(&notes); err != nil {
//		log.Fatal(err)
//	}
//
//	id, err := notes.Save("todo", Note{Text: "buy milk"}).Get(ctx)
//
//	// Asynchronously, on a bounded pool
//	res := <-notes.Load("todo").Subscribe(ctx, drivekit.NewBoundedScheduler(4))
//
// A read that finds nothing yields the zero value and a nil error.
//
// # Converters
//
// Bodies and results are converted by a chain of [ConverterFactory] values.
// The first factory that returns a converter for a type wins, and a built-in
// factory for []byte, string, [ResourceID], []Item and *[ResultSet] is always
// consulted last. A factory may delegate to the rest of the chain with
// [Client.NextResponseConverter], which is how the zstd converter wraps the
// JSON one.
//
// # Drivers
//
// The memory, local, s3, gcs, azure, sftp and zip drivers register themselves
// when github.com/gobeaver/drivekit/drivers is imported. Drivers compose:
//
//	appFolder, err := local.New("./storage")
//
//	mux := drivekit.NewMux()
//	mux.Mount(drivekit.SchemeApp, appFolder)
//	mux.Mount(drivekit.SchemeRoot, drivekit.ReadOnly(s3.New(s3Client, "bucket")))
//
// [Validated] checks request bodies with a filevalidator before writing.
//
// # Configuration
//
// [New] builds a Client from a [Config], which [GetConfig] loads from
// BEAVER_DRIVEKIT_* environment variables.
package drivekit
