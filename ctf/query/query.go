// Package query implements the metadata query surface (spec.md §6):
// reading a trace's metadata file and reporting whether it is packetized
// (the CTF 1.8 on-disk metadata stream format, wrapping the text payload in
// fixed packet headers) or plain text, returning the decoded text either
// way. Grounded on the reference fs.c's metadata-open path and the CTF 1.8
// metadata packet header layout.
package query

import (
	"encoding/binary"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/c360/ctffs/errors"
)

const metadataMagic = 0x75D11D57

const packetHeaderSize = 37

// Result is what MetadataInfo reports about one metadata file.
type Result struct {
	Path       string
	Packetized bool
	UUID       uuid.UUID // zero value if not packetized
	Major      uint8
	Minor      uint8
	Text       string
}

// MetadataInfo reads path and decodes it, auto-detecting the CTF 1.8
// packetized metadata stream format by its magic number (spec.md §6).
func MetadataInfo(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, errors.WrapInvalid(err, "query", "MetadataInfo", path)
	}

	if len(data) < 4 || binary.LittleEndian.Uint32(data[:4]) != metadataMagic {
		return Result{Path: path, Text: ensureSignature(string(data))}, nil
	}

	text, major, minor, id, err := decodePacketized(data)
	if err != nil {
		return Result{}, errors.WrapInvalid(err, "query", "MetadataInfo", path)
	}
	return Result{Path: path, Packetized: true, UUID: id, Major: major, Minor: minor, Text: ensureSignature(text)}, nil
}

const metadataSignature = "/* CTF 1.8"

// ensureSignature prepends the CTF 1.8 metadata signature line when text
// doesn't already carry one, so callers always see a well-formed metadata
// document regardless of how the source trace stored it (spec.md §4.7).
func ensureSignature(text string) string {
	if strings.HasPrefix(text, metadataSignature) {
		return text
	}
	return metadataSignature + " */\n" + text
}

// decodePacketized walks a sequence of fixed-size CTF metadata packet
// headers, each followed by content_size/8 bytes of text padded out to
// packet_size/8 bytes, concatenating the text payloads.
func decodePacketized(data []byte) (text string, major, minor uint8, id uuid.UUID, err error) {
	var sb strings.Builder
	offset := 0

	for offset < len(data) {
		if offset+packetHeaderSize > len(data) {
			return "", 0, 0, uuid.UUID{}, errors.ErrMetadataParse
		}
		header := data[offset : offset+packetHeaderSize]

		magic := binary.LittleEndian.Uint32(header[0:4])
		if magic != metadataMagic {
			return "", 0, 0, uuid.UUID{}, errors.ErrMetadataParse
		}
		packetUUID, uerr := uuid.FromBytes(header[4:20])
		if uerr != nil {
			return "", 0, 0, uuid.UUID{}, errors.ErrMetadataParse
		}
		contentSizeBits := binary.LittleEndian.Uint32(header[24:28])
		packetSizeBits := binary.LittleEndian.Uint32(header[28:32])
		packetMajor := header[35]
		packetMinor := header[36]

		contentSizeBytes := int(contentSizeBits / 8)
		packetSizeBytes := int(packetSizeBits / 8)
		if packetSizeBytes < packetHeaderSize || contentSizeBytes < packetHeaderSize || contentSizeBytes > packetSizeBytes {
			return "", 0, 0, uuid.UUID{}, errors.ErrMetadataParse
		}

		textStart := offset + packetHeaderSize
		textEnd := offset + contentSizeBytes
		if textEnd > len(data) {
			return "", 0, 0, uuid.UUID{}, errors.ErrMetadataParse
		}
		sb.Write(data[textStart:textEnd])

		if offset == 0 {
			id = packetUUID
			major = packetMajor
			minor = packetMinor
		}

		next := offset + packetSizeBytes
		if next <= offset {
			return "", 0, 0, uuid.UUID{}, errors.ErrMetadataParse
		}
		offset = next
	}

	return sb.String(), major, minor, id, nil
}
