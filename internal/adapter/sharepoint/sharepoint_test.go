package sharepoint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocator(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"replaces separator", "a/b.txt", "sharepoint_item_a_b.txt"},
		{"replaces every separator", "x/y/z/file.docx", "sharepoint_item_x_y_z_file.docx"},
		{"leading separator", "/root.txt", "sharepoint_item__root.txt"},
		{"no separator", "plain.txt", "sharepoint_item_plain.txt"},
		{"backslash untouched", `a\b.txt`, `sharepoint_item_a\b.txt`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Locator(tt.in))
		})
	}
}

func TestDocLibraryAdapter_UploadIsDeterministic(t *testing.T) {
	d := NewDocLibraryAdapter(nil)
	ctx := context.Background()

	first, err := d.UploadFile(ctx, []byte("x"), "a/b.txt", "")
	require.NoError(t, err)
	second, err := d.UploadFile(ctx, []byte("y"), "a/b.txt", "")
	require.NoError(t, err)

	assert.Equal(t, "sharepoint_item_a_b.txt", first)
	assert.Equal(t, first, second)
}

func TestDocLibraryAdapter_ReadReturnsPlaceholder(t *testing.T) {
	d := NewDocLibraryAdapter(nil)

	got, err := d.ReadFile(context.Background(), "sharepoint_item_a_b.txt")
	require.NoError(t, err)
	assert.Equal(t, "Mock content from SharePoint", string(got))
}

func TestDocLibraryAdapter_DeleteAlwaysSucceeds(t *testing.T) {
	d := NewDocLibraryAdapter(nil)
	assert.True(t, d.DeleteFile(context.Background(), "anything"))
}
