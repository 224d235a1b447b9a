package format

import (
	"fmt"

	"github.com/joshuapare/esekit/internal/buf"
)

// BranchNode is one entry of a branch (parent) page: a separator key and the
// page number of the child subtree holding keys at or below it.
type BranchNode struct {
	CommonKeySize int
	LocalKey      []byte
	ChildPage     uint32
}

// LeafNode is one entry of a leaf page: the node key and its payload. For
// table trees the payload is a data definition record; for long value trees
// it is a root descriptor or data segment.
type LeafNode struct {
	CommonKeySize int
	LocalKey      []byte
	Data          []byte
}

// keyPrefix reads the optional common key size and the local key from an
// entry, returning the common size, local key and remaining payload. The
// first uint16 of an entry on a large page carries the tag flags in its top
// bits and must be masked.
func keyPrefix(data []byte, flags uint8, largePage bool) (common int, key, rest []byte, err error) {
	off := 0
	firstMask := 0xFFFF
	if largePage {
		firstMask = PageTagSmallMask
	}
	if flags&TagFlagCommonKey != 0 {
		if len(data) < 2 {
			return 0, nil, nil, fmt.Errorf("node: %w", ErrTruncated)
		}
		common = int(buf.U16LE(data)) & firstMask
		off += 2
		firstMask = 0xFFFF
	}
	if len(data) < off+2 {
		return 0, nil, nil, fmt.Errorf("node: %w", ErrTruncated)
	}
	localSize := int(buf.U16LE(data[off:])) & firstMask
	off += 2
	key, ok := buf.Slice(data, off, localSize)
	if !ok {
		return 0, nil, nil, fmt.Errorf("node: key size %d: %w", localSize, ErrTruncated)
	}
	return common, key, data[off+localSize:], nil
}

// ParseBranchNode decodes a branch page entry.
func ParseBranchNode(data []byte, flags uint8, largePage bool) (BranchNode, error) {
	common, key, rest, err := keyPrefix(data, flags, largePage)
	if err != nil {
		return BranchNode{}, err
	}
	if len(rest) < 4 {
		return BranchNode{}, fmt.Errorf("branch node: missing child page: %w", ErrTruncated)
	}
	return BranchNode{
		CommonKeySize: common,
		LocalKey:      key,
		ChildPage:     buf.U32LE(rest),
	}, nil
}

// ParseLeafNode decodes a leaf page entry.
func ParseLeafNode(data []byte, flags uint8, largePage bool) (LeafNode, error) {
	common, key, rest, err := keyPrefix(data, flags, largePage)
	if err != nil {
		return LeafNode{}, err
	}
	return LeafNode{
		CommonKeySize: common,
		LocalKey:      key,
		Data:          rest,
	}, nil
}

// FullKey reassembles a node's complete key from the page's common key prefix
// (the key of page tag 0) and the node's local suffix.
func FullKey(pagePrefix []byte, commonSize int, localKey []byte) []byte {
	if commonSize == 0 {
		return localKey
	}
	if commonSize > len(pagePrefix) {
		commonSize = len(pagePrefix)
	}
	key := make([]byte, 0, commonSize+len(localKey))
	key = append(key, pagePrefix[:commonSize]...)
	return append(key, localKey...)
}
