package drivekit

import "testing"

func TestContentTypeByName(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"notes.txt", nil, MIMETypeTextPlain},
		{"REPORT.PDF", nil, MIMETypeApplicationPDF},
		{"data.json", nil, MIMETypeApplicationJSON},
		{"dir/photo.jpeg", nil, MIMETypeImageJPEG},
		{"README", []byte("plain words"), MIMETypeTextPlain},
		{"blob", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, MIMETypeImagePNG},
		{"unknown", nil, MIMETypeOctetStream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContentTypeByName(tt.name, tt.data); got != tt.want {
				t.Errorf("ContentTypeByName(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestExtensionForContentType(t *testing.T) {
	tests := map[string]string{
		"text/plain; charset=utf-8": ".txt",
		MIMETypeApplicationJSON:     ".json",
		MIMETypeImageJPEG:           ".jpg",
		"application/x-nothing":     ".bin",
	}
	for ct, want := range tests {
		if got := ExtensionForContentType(ct); got != want {
			t.Errorf("ExtensionForContentType(%q) = %q, want %q", ct, got, want)
		}
	}
}
