package storage

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	// Scheme and Authority form the content URI prefix of every address.
	Scheme    = "content"
	Authority = "nickdir.provider"
	// CollectionPath is the path segment naming the record collection.
	CollectionPath = "nicknames"
)

// ContentType classifies what an address points at.
type ContentType string

const (
	ContentTypeDir  ContentType = "vnd.nickdir.dir/vnd.nickdir.nicknames"
	ContentTypeItem ContentType = "vnd.nickdir.item/vnd.nickdir.nicknames"
)

// AddressKind tags the variant held by an Address.
type AddressKind uint8

const (
	// KindInvalid is the zero kind; it never reaches storage.
	KindInvalid AddressKind = iota
	KindCollection
	KindItem
)

func (k AddressKind) String() string {
	switch k {
	case KindCollection:
		return "collection"
	case KindItem:
		return "item"
	default:
		return "invalid"
	}
}

// Address identifies either the whole collection or a single record.
// The zero value is invalid.
type Address struct {
	kind AddressKind
	id   int64
}

// Collection addresses every record.
func Collection() Address {
	return Address{kind: KindCollection}
}

// Item addresses the record with the given id.
func Item(id int64) Address {
	return Address{kind: KindItem, id: id}
}

// Kind returns the variant tag.
func (a Address) Kind() AddressKind {
	return a.kind
}

// ID returns the record id for item addresses.
func (a Address) ID() (int64, bool) {
	if a.kind != KindItem {
		return 0, false
	}
	return a.id, true
}

// Validate rejects anything other than Collection or Item with a positive id.
func (a Address) Validate() error {
	switch a.kind {
	case KindCollection:
		return nil
	case KindItem:
		if a.id > 0 {
			return nil
		}
	}
	return &InvalidAddressError{Address: a.String()}
}

// ContentType returns the classification tag for a valid address.
func (a Address) ContentType() (ContentType, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}
	if a.kind == KindItem {
		return ContentTypeItem, nil
	}
	return ContentTypeDir, nil
}

// String renders the canonical content URI.
func (a Address) String() string {
	base := Scheme + "://" + Authority + "/" + CollectionPath
	switch a.kind {
	case KindCollection:
		return base
	case KindItem:
		return base + "/" + strconv.FormatInt(a.id, 10)
	default:
		return "<invalid>"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress accepts "nicknames", "nicknames/<id>" and their full
// content:// URI forms.
func ParseAddress(raw string) (Address, error) {
	invalid := &InvalidAddressError{Address: raw}
	value := strings.TrimSpace(raw)
	path := value

	if strings.Contains(value, "://") {
		u, err := url.Parse(value)
		if err != nil {
			return Address{}, invalid
		}
		if u.Scheme != Scheme || u.Host != Authority || u.RawQuery != "" || u.Fragment != "" {
			return Address{}, invalid
		}
		path = u.Path
	}
	path = strings.TrimPrefix(path, "/")

	segments := strings.Split(path, "/")
	if segments[0] != CollectionPath {
		return Address{}, invalid
	}
	switch len(segments) {
	case 1:
		return Collection(), nil
	case 2:
		id, ok := parseID(segments[1])
		if !ok {
			return Address{}, invalid
		}
		return Item(id), nil
	default:
		return Address{}, invalid
	}
}

func parseID(segment string) (int64, bool) {
	if segment == "" {
		return 0, false
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(segment, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
