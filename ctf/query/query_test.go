package query_test

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ctffs/ctf/query"
)

func TestMetadataInfoPlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata")
	require.NoError(t, os.WriteFile(path, []byte("trace {};"), 0o644))

	result, err := query.MetadataInfo(path)
	require.NoError(t, err)
	assert.False(t, result.Packetized)
	assert.Equal(t, "/* CTF 1.8 */\ntrace {};", result.Text)
}

func writePacketizedMetadata(t *testing.T, path string, text string) uuid.UUID {
	t.Helper()
	id := uuid.New()

	contentSize := uint32((37 + len(text)) * 8)
	packetSize := contentSize

	header := make([]byte, 37)
	binary.LittleEndian.PutUint32(header[0:4], 0x75D11D57)
	copy(header[4:20], id[:])
	binary.LittleEndian.PutUint32(header[20:24], 0) // checksum, unused by this decoder
	binary.LittleEndian.PutUint32(header[24:28], contentSize)
	binary.LittleEndian.PutUint32(header[28:32], packetSize)
	header[32] = 0 // compression_scheme
	header[33] = 0 // encryption_scheme
	header[34] = 0 // checksum_scheme
	header[35] = 1 // major
	header[36] = 8 // minor

	data := append(header, []byte(text)...)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return id
}

func TestMetadataInfoPacketized(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata")
	id := writePacketizedMetadata(t, path, "trace {};")

	result, err := query.MetadataInfo(path)
	require.NoError(t, err)
	assert.True(t, result.Packetized)
	assert.Equal(t, "/* CTF 1.8 */\ntrace {};", result.Text)
	assert.Equal(t, id, result.UUID)
	assert.EqualValues(t, 1, result.Major)
	assert.EqualValues(t, 8, result.Minor)
}

func TestMetadataInfoMissingFile(t *testing.T) {
	_, err := query.MetadataInfo("/does/not/exist")
	assert.Error(t, err)
}
