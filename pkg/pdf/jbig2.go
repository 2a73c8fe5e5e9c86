package pdf

import "io"

// JBIG2Codec decodes JBIG2 payloads. Like JPEG 2000, the arithmetic-coding
// machinery lives outside this package and is injected.
type JBIG2Codec interface {
	// DecodeJBIG2 decodes an embedded JBIG2 stream. globals holds the shared
	// segment data referenced by JBIG2Globals, or nil.
	DecodeJBIG2(data, globals []byte) ([]byte, error)
}

var jbig2Codec JBIG2Codec

// SetJBIG2Codec installs the JBIG2 decoder used by JBIG2Decode. Passing nil
// uninstalls it.
func SetJBIG2Codec(c JBIG2Codec) {
	jbig2Codec = c
}

// jbig2Filter implements JBIG2Decode by delegation.
type jbig2Filter struct{}

func (jbig2Filter) Decode(r io.Reader, w io.Writer, params Dictionary, index int) (DecodeResult, error) {
	if jbig2Codec == nil {
		return nil, &CodecError{Filter: "JBIG2Decode", Kind: CodecUnavailable}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var globals []byte
	if g, ok := params.Get("JBIG2Globals").(Stream); ok {
		globals, err = g.Decode()
		if err != nil {
			debugf("JBIG2Decode: unreadable globals stream: %v", err)
			globals = nil
		}
	}

	decoded, err := jbig2Codec.DecodeJBIG2(data, globals)
	if err != nil {
		return nil, &CodecError{Filter: "JBIG2Decode", Kind: Corrupt, Err: err}
	}
	_, err = w.Write(decoded)
	return nil, err
}

func (jbig2Filter) Encode(r io.Reader, w io.Writer, params Dictionary) error {
	return &CodecError{Filter: "JBIG2Decode", Kind: EncodeUnsupported}
}
