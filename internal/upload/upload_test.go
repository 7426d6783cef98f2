package upload

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"reserved characters", ` cover<2026>?.png `, "cover_2026__.png"},
		{"unix path", "../../etc/passwd", "passwd"},
		{"windows path", `C:\Users\ada\Pictures\me.jpg`, "me.jpg"},
		{"hidden", ".env", "env"},
		{"zero width", "Call\u200B of\u200B Duty.png", "Call of Duty.png"},
		{"control", "bad\x00name\n.pdf", "badname.pdf"},
		{"empty", "   ", "upload"},
		{"only dots", "..", "upload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, CleanFilename(tt.in, "upload"))
		})
	}
}

func TestCleanFilename_Truncates(t *testing.T) {
	t.Parallel()

	got := CleanFilename(strings.Repeat("é", 300)+".png", "upload")
	require.Len(t, []rune(got), maxFilenameRunes)
}

func TestWithExtension(t *testing.T) {
	t.Parallel()

	require.Equal(t, "me.jpg", WithExtension("me.png", ".jpg"))
	require.Equal(t, "avatar.jpg", WithExtension("avatar", ".jpg"))
}

func TestContentType(t *testing.T) {
	t.Parallel()

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	require.Equal(t, "image/webp", ContentType("image/webp", "a.bin", nil))
	require.Equal(t, "image/png", ContentType("application/octet-stream", "cover", png))
	require.Equal(t, "image/png", ContentType("", "cover.png", png))
	require.Equal(t, "application/pdf", ContentType("", "brochure.pdf", []byte("%PDF-1.7")))
	require.Equal(t, "application/octet-stream", ContentType("", "blob", []byte{0x00, 0x01, 0x02}))
	require.True(t, IsImage("Image/JPEG"))
	require.False(t, IsImage("application/pdf"))
}
