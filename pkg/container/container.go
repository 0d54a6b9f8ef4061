// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// flagBit marks the boolean carried by every entry header.
	flagBit uint32 = 0x80000000
	// MaxEntryLength is the largest string a single entry can hold.
	MaxEntryLength = 0x7FFFFFFF

	headerSize = 4
)

var (
	// ErrEntryTooLong is returned when a string does not fit in 31 bits.
	ErrEntryTooLong = errors.New("entry too long")
	// ErrMalformed is returned when the container bytes cannot be parsed.
	ErrMalformed = errors.New("malformed container")
)

type (
	// Dependency records how one literal reference inside a unit resolved.
	Dependency struct {
		// Reference is the literal string the unit passes to require.
		Reference string
		// Target is the relative identity of the unit it resolved to.
		Target string
	}

	// Unit is one source file stored in a container.
	Unit struct {
		// Name is the unit identity relative to the container root,
		// slash separated.
		Name string
		// Dependencies are the unit's resolved references in the order
		// they were discovered.
		Dependencies []Dependency
		// Content is the unit's source text.
		Content string
	}

	// MalformedError describes where decoding stopped.
	MalformedError struct {
		Offset int
		Reason string
	}

	// Encoder writes unit records to an underlying writer.
	Encoder struct {
		w      *bufio.Writer
		header [headerSize]byte
	}
)

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed container at offset %d: %s", e.Offset, e.Reason)
}

// Unwrap lets errors.Is match ErrMalformed.
func (e *MalformedError) Unwrap() error {
	return ErrMalformed
}

// DependencyMap returns the unit's dependencies keyed by reference.
func (u Unit) DependencyMap() map[string]string {
	deps := make(map[string]string, len(u.Dependencies))
	for _, dep := range u.Dependencies {
		deps[dep.Reference] = dep.Target
	}
	return deps
}

// NewEncoder returns an Encoder writing to w. Call Flush when done.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// WriteUnit appends one unit record.
func (e *Encoder) WriteUnit(u Unit) error {
	if err := e.writeEntry(u.Name, len(u.Dependencies) == 0); err != nil {
		return fmt.Errorf("unit %s: name: %w", u.Name, err)
	}
	for i, dep := range u.Dependencies {
		if err := e.writeEntry(dep.Reference, i == len(u.Dependencies)-1); err != nil {
			return fmt.Errorf("unit %s: dependency %q: %w", u.Name, dep.Reference, err)
		}
		if err := e.writeEntry(dep.Target, false); err != nil {
			return fmt.Errorf("unit %s: dependency %q target: %w", u.Name, dep.Reference, err)
		}
	}
	if err := e.writeEntry(u.Content, false); err != nil {
		return fmt.Errorf("unit %s: content: %w", u.Name, err)
	}
	return nil
}

// Flush writes any buffered data to the underlying writer.
func (e *Encoder) Flush() error {
	return e.w.Flush()
}

func (e *Encoder) writeEntry(s string, flag bool) error {
	header, err := entryHeader(len(s), flag)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint32(e.header[:], header)
	if _, err := e.w.Write(e.header[:]); err != nil {
		return err
	}
	_, err = e.w.WriteString(s)
	return err
}

// entryHeader packs a length and flag into a header word.
func entryHeader(length int, flag bool) (uint32, error) {
	if length < 0 || length > MaxEntryLength {
		return 0, fmt.Errorf("%w: %d bytes", ErrEntryTooLong, length)
	}
	header := uint32(length)
	if flag {
		header |= flagBit
	}
	return header, nil
}

// Encode writes all units to w.
func Encode(w io.Writer, units []Unit) error {
	enc := NewEncoder(w)
	for _, u := range units {
		if err := enc.WriteUnit(u); err != nil {
			return err
		}
	}
	return enc.Flush()
}

// decoder walks a fully buffered container.
type decoder struct {
	data   []byte
	offset int
}

func (d *decoder) readEntry() (string, bool, error) {
	if len(d.data)-d.offset < headerSize {
		return "", false, &MalformedError{Offset: d.offset, Reason: "truncated entry header"}
	}
	header := binary.BigEndian.Uint32(d.data[d.offset:])
	flag := header&flagBit != 0
	length := int(header &^ flagBit)
	start := d.offset + headerSize
	if length > len(d.data)-start {
		return "", false, &MalformedError{
			Offset: d.offset,
			Reason: fmt.Sprintf("entry length %d exceeds remaining %d bytes", length, len(d.data)-start),
		}
	}
	d.offset = start + length
	return string(d.data[start:d.offset]), flag, nil
}

func (d *decoder) readUnit() (Unit, error) {
	name, leaf, err := d.readEntry()
	if err != nil {
		return Unit{}, err
	}
	u := Unit{Name: name}
	for !leaf {
		var dep Dependency
		if dep.Reference, leaf, err = d.readEntry(); err != nil {
			return Unit{}, err
		}
		if dep.Target, _, err = d.readEntry(); err != nil {
			return Unit{}, err
		}
		u.Dependencies = append(u.Dependencies, dep)
	}
	if u.Content, _, err = d.readEntry(); err != nil {
		return Unit{}, err
	}
	return u, nil
}

// Decode parses a complete container held in memory.
func Decode(data []byte) ([]Unit, error) {
	d := &decoder{data: data}
	var units []Unit
	for d.offset < len(d.data) {
		u, err := d.readUnit()
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, nil
}
