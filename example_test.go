package drivekit_test

import (
	"context"
	"fmt"

	"github.com/gobeaver/drivekit"
	"github.com/gobeaver/drivekit/converter/jsonconv"
	"github.com/gobeaver/drivekit/driver/memory"
)

type Message struct {
	From string `json:"from"`
	Text string `json:"text"`
}

type Messages struct {
	Save func(name string, m Message) *drivekit.Call[drivekit.ResourceID] `create:"messages/{name}" params:"path:name, body" mime:"application/json"`
	Load func(name string) *drivekit.Call[Message]                        `read:"messages/{name}?match=exact" params:"path:name" mime:"application/json"`
}

func ExampleClient_Create() {
	ctx := context.Background()

	client, err := drivekit.NewBuilder(memory.New()).
		BaseScope(drivekit.ScopeAppFolder).
		AddConverterFactory(jsonconv.New()).
		Build()
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	var messages Messages
	if err := client.Create(&messages); err != nil {
		fmt.Println("Error:", err)
		return
	}

	_, _ = messages.Save("greeting", Message{From: "ada", Text: "hello"}).Get(ctx)

	m, _ := messages.Load("greeting").Get(ctx)
	fmt.Println(m.From + ": " + m.Text)

	missing, err := messages.Load("nothing").Get(ctx)
	fmt.Printf("%q %v\n", missing.Text, err)
	// Output:
	// ada: hello
	// "" <nil>
}

func ExampleCall_Subscribe() {
	ctx := context.Background()

	call := drivekit.NewCall(func(context.Context) (string, error) {
		return "done", nil
	})

	// Nothing runs until the call is subscribed to.
	res := <-call.Subscribe(ctx, drivekit.Background)
	fmt.Println(res.Value, res.Err)
	// Output:
	// done <nil>
}

func ExampleMux() {
	ctx := context.Background()

	mux := drivekit.NewMux()
	_ = mux.Mount(drivekit.SchemeApp, memory.New())
	_ = mux.Mount(drivekit.SchemeRoot, memory.New())

	client, _ := drivekit.NewBuilder(mux).BaseScope(drivekit.ScopeFile).Build()

	var files struct {
		Put func(name string, data []byte) *drivekit.Call[drivekit.ResourceID] `create:"docs/{name}" params:"path:name, body"`
		Get func(name string) *drivekit.Call[string]                           `read:"docs/{name}" params:"path:name"`
	}
	_ = client.Create(&files)

	_, _ = files.Put("readme", []byte("stored under the device root")).Get(ctx)
	text, _ := files.Get("readme").Get(ctx)
	fmt.Println(text)
	// Output:
	// stored under the device root
}
