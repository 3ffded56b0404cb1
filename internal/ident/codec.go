package ident

// GobEncode implements gob.GobEncoder: Identifier's backing array is
// unexported, so without this gob would silently encode every Identifier
// field as empty. Round-tripping through the plain string form is enough
// — New() re-truncates identically since the original string was already
// within (or truncated to) DefaultCap.
func (id Identifier) GobEncode() ([]byte, error) {
	return []byte(id.String()), nil
}

// GobDecode implements gob.GobDecoder.
func (id *Identifier) GobDecode(data []byte) error {
	*id = New(string(data))
	return nil
}

// GobEncode implements gob.GobEncoder for ShortIdentifier.
func (id ShortIdentifier) GobEncode() ([]byte, error) {
	return []byte(id.String()), nil
}

// GobDecode implements gob.GobDecoder for ShortIdentifier.
func (id *ShortIdentifier) GobDecode(data []byte) error {
	*id = NewShort(string(data))
	return nil
}
