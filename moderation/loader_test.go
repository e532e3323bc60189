package moderation

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"group-chat/errors"
)

func TestLoadWords_MergesFilesAndSkipsComments(t *testing.T) {
	req := require.New(t)
	fsys := fstest.MapFS{
		"dict/en.txt":    {Data: []byte("# header\nscam\r\nmoron\n\n")},
		"dict/fr.txt":    {Data: []byte("arnaque\nscam\n")},
		"dict/README.md": {Data: []byte("not a dictionary")},
	}

	words, err := LoadWords(fsys, "dict")
	req.NoError(err)
	req.Equal([]string{"arnaque", "moron", "scam"}, words.Words)
	req.Equal([]string{"en", "fr"}, words.Languages)
}

func TestLoadWords_EmptyDictionary(t *testing.T) {
	fsys := fstest.MapFS{"dict/en.txt": {Data: []byte("# nothing\n")}}

	_, err := LoadWords(fsys, "dict")
	require.ErrorIs(t, err, errors.ErrEmptyWords)
}
