package azure

import (
	"errors"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"

	"github.com/gobeaver/drivekit/driver/objectstore"
)

func TestMetadataRoundTrip(t *testing.T) {
	in := map[string]string{
		"content-encoding":     "zstd",
		"drivekit-description": "a note with ünïcode",
	}
	encoded, err := encodeMetadata(in)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range encoded {
		if r > 127 {
			t.Fatalf("encoded metadata %q is not ASCII", encoded)
		}
	}
	out, err := decodeMetadata(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(in) || out["content-encoding"] != "zstd" || out["drivekit-description"] != in["drivekit-description"] {
		t.Errorf("round trip gave %v, want %v", out, in)
	}

	if _, err := decodeMetadata("!!not base64!!"); err == nil {
		t.Error("expected invalid metadata to fail")
	}
}

func TestToObject(t *testing.T) {
	name := "app/notes/todo@text%2Fplain"
	ct := "text/plain"
	size := int64(42)
	modified := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	encoded, err := encodeMetadata(map[string]string{"lang": "en"})
	if err != nil {
		t.Fatal(err)
	}

	obj, err := toObject(&container.BlobItem{
		Name: &name,
		Properties: &container.BlobProperties{
			ContentType:   &ct,
			ContentLength: &size,
			LastModified:  &modified,
		},
		// Azure may return metadata names with different casing
		Metadata: map[string]*string{"Drivekit": &encoded},
	})
	if err != nil {
		t.Fatal(err)
	}
	if obj.Key != name || obj.ContentType != ct || obj.Size != size || !obj.Modified.Equal(modified) {
		t.Errorf("unexpected object %+v", obj)
	}
	if obj.Metadata["lang"] != "en" {
		t.Errorf("expected decoded metadata, got %v", obj.Metadata)
	}

	bare, err := toObject(&container.BlobItem{Name: &name})
	if err != nil || bare.Key != name || bare.Metadata != nil {
		t.Errorf("unexpected object without properties %+v (%v)", bare, err)
	}
}

func TestMapAzureError(t *testing.T) {
	if mapAzureError(nil) != nil {
		t.Error("expected nil error to stay nil")
	}

	notFound := &azcore.ResponseError{ErrorCode: "BlobNotFound", StatusCode: 404}
	if err := mapAzureError(notFound); !errors.Is(err, objectstore.ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound, got %v", err)
	}

	denied := &azcore.ResponseError{ErrorCode: "AuthorizationFailure", StatusCode: 403}
	err := mapAzureError(denied)
	if errors.Is(err, objectstore.ErrObjectNotFound) {
		t.Errorf("expected %v not to map to not-found", err)
	}
	var re *azcore.ResponseError
	if !errors.As(err, &re) {
		t.Errorf("expected the response error to be kept, got %v", err)
	}
}
