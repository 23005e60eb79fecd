// Copyright © 2024 KubeStack-AI Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package offsettracker

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/kadaan/kafka-offset-monitor/internal/logging"
)

// key-message variants, per Kafka's __consumer_offsets wire format. 0 and 1
// are both offset-commit keys with the same layout; 2 is group-metadata;
// anything else is a future/unknown variant.
const (
	keyVariantOffsetCommitV0 = 0
	keyVariantOffsetCommitV1 = 1
	keyVariantGroupMetadata  = 2
)

var errShortBuffer = errors.New("offsettracker: buffer underflow decoding consumer-offsets record")

// OffsetMessageDecoder turns a raw __consumer_offsets record into a decoded
// offset-commit tuple. It never panics and never returns an error to the
// caller: any parse failure is logged and reported as "ignore" (ok=false).
type OffsetMessageDecoder struct {
	log logging.Logger
}

// NewOffsetMessageDecoder builds a decoder that logs parse failures under
// the given logger.
func NewOffsetMessageDecoder(log logging.Logger) *OffsetMessageDecoder {
	return &OffsetMessageDecoder{log: log}
}

// Decode attempts to decode one __consumer_offsets record. ok is true only
// for the offset-commit variant; group-metadata records, unknown variants,
// tombstones, and malformed records all report ok=false.
func (d *OffsetMessageDecoder) Decode(key, value []byte) (gtp GroupTopicPartition, rec OffsetRecord, ok bool) {
	if len(key) == 0 || len(value) == 0 {
		d.log.Infof("skipping consumer-offsets record with null key or value")
		return gtp, rec, false
	}

	keyReader := bytes.NewReader(key)
	variant, err := readInt16(keyReader)
	if err != nil {
		d.log.Errorf("failed to decode consumer-offsets key variant: %v", err)
		return gtp, rec, false
	}

	switch variant {
	case keyVariantOffsetCommitV0, keyVariantOffsetCommitV1:
		gtp, err = decodeOffsetCommitKey(keyReader)
		if err != nil {
			d.log.Errorf("failed to decode offset-commit key: %v", err)
			return gtp, rec, false
		}
	case keyVariantGroupMetadata:
		d.log.Infof("skipping group-metadata record")
		return gtp, rec, false
	default:
		d.log.Infof("skipping consumer-offsets record with unknown key variant %d", variant)
		return gtp, rec, false
	}

	rec, err = decodeOffsetCommitValue(value)
	if err != nil {
		d.log.Errorf("failed to decode offset-commit value for %+v: %v", gtp, err)
		return gtp, rec, false
	}

	return gtp, rec, true
}

func decodeOffsetCommitKey(r *bytes.Reader) (GroupTopicPartition, error) {
	group, err := readString(r)
	if err != nil {
		return GroupTopicPartition{}, fmt.Errorf("group: %w", err)
	}
	topic, err := readString(r)
	if err != nil {
		return GroupTopicPartition{}, fmt.Errorf("topic: %w", err)
	}
	partition, err := readInt32(r)
	if err != nil {
		return GroupTopicPartition{}, fmt.Errorf("partition: %w", err)
	}
	return GroupTopicPartition{Group: group, Topic: topic, Partition: partition}, nil
}

// decodeOffsetCommitValue decodes the offset-commit value schema. Versions
// 0 and 1 carry an explicit expire timestamp; version 2 dropped it, and
// version 3 added a leader-epoch field after the offset, so ExpireTimestamp
// is left at zero for version 2+ records (documented in SPEC_FULL.md §4.1,
// not guessed silently).
func decodeOffsetCommitValue(value []byte) (OffsetRecord, error) {
	r := bytes.NewReader(value)
	version, err := readInt16(r)
	if err != nil {
		return OffsetRecord{}, fmt.Errorf("value version: %w", err)
	}

	offset, err := readInt64(r)
	if err != nil {
		return OffsetRecord{}, fmt.Errorf("offset: %w", err)
	}

	if version >= 3 {
		if _, err := readInt32(r); err != nil {
			return OffsetRecord{}, fmt.Errorf("leader epoch: %w", err)
		}
	}

	metadata, err := readString(r)
	if err != nil {
		return OffsetRecord{}, fmt.Errorf("metadata: %w", err)
	}

	commitTimestamp, err := readInt64(r)
	if err != nil {
		return OffsetRecord{}, fmt.Errorf("commit timestamp: %w", err)
	}

	var expireTimestamp int64
	if version == 0 || version == 1 {
		expireTimestamp, err = readInt64(r)
		if err != nil {
			return OffsetRecord{}, fmt.Errorf("expire timestamp: %w", err)
		}
	}

	return OffsetRecord{
		Offset:          offset,
		Metadata:        metadata,
		CommitTimestamp: commitTimestamp,
		ExpireTimestamp: expireTimestamp,
	}, nil
}

func readInt16(r *bytes.Reader) (int16, error) {
	var v int16
	if err := binary.Read(r, binary.BigEndian, &v); err != nil {
		return 0, errShortBuffer
	}
	return v, nil
}

func readInt32(r *bytes.Reader) (int32, error) {
	var v int32
	if err := binary.Read(r, binary.BigEndian, &v); err != nil {
		return 0, errShortBuffer
	}
	return v, nil
}

func readInt64(r *bytes.Reader) (int64, error) {
	var v int64
	if err := binary.Read(r, binary.BigEndian, &v); err != nil {
		return 0, errShortBuffer
	}
	return v, nil
}

// readString reads Kafka's length-prefixed string encoding: an int16 byte
// length followed by that many bytes. A length of -1 denotes a null string,
// decoded here as "".
func readString(r *bytes.Reader) (string, error) {
	length, err := readInt16(r)
	if err != nil {
		return "", err
	}
	if length < 0 {
		return "", nil
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", errShortBuffer
	}
	return string(buf), nil
}
