package gamedb

import (
	"bytes"
	"encoding/gob"
)

// Store persists objects behind the in-memory Database cache.
// Writes are write-through: the caller mutates the cached object and then
// hands it to PutObject.
type Store interface {
	DB() *Database
	LoadAll() error
	PutObject(obj *Object) error
	PutObjects(objs ...*Object) error
	DeleteObject(ref DBRef) error
	Close() error
}

func init() {
	gob.Register(Object{})
	gob.Register(Stat{})
}

// EncodeObject serializes an Object to bytes using gob.
func EncodeObject(obj *Object) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(obj); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeObject deserializes bytes back into an Object.
func DecodeObject(data []byte) (*Object, error) {
	var obj Object
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&obj); err != nil {
		return nil, err
	}
	if obj.Attrs == nil {
		obj.Attrs = make(map[string]string)
	}
	return &obj, nil
}
