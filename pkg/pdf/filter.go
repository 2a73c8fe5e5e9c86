package pdf

import (
	"bytes"
	"fmt"
	"io"
)

// DecodeResult carries metadata a filter learned about its output, such as
// image dimensions from a DCT or JPX payload. It is empty for most filters.
type DecodeResult Dictionary

// Filter decodes and encodes one stream filter. Decode reads encoded bytes
// from r and writes decoded bytes to w; index is the filter's position in the
// stream's chain. Filters without an encode path return a CodecError of kind
// EncodeUnsupported.
type Filter interface {
	Decode(r io.Reader, w io.Writer, params Dictionary, index int) (DecodeResult, error)
	Encode(r io.Reader, w io.Writer, params Dictionary) error
}

// identityFilter passes bytes through unchanged. Used for the Crypt filter
// with the Identity name and as a building block for pass-through decoders.
type identityFilter struct{}

func (identityFilter) Decode(r io.Reader, w io.Writer, params Dictionary, index int) (DecodeResult, error) {
	_, err := io.Copy(w, r)
	return nil, err
}

func (identityFilter) Encode(r io.Reader, w io.Writer, params Dictionary) error {
	_, err := io.Copy(w, r)
	return err
}

var filters = map[Name]Filter{
	"FlateDecode":     flateFilter{},
	"Fl":              flateFilter{},
	"LZWDecode":       lzwFilter{},
	"LZW":             lzwFilter{},
	"RunLengthDecode": runLengthFilter{},
	"RL":              runLengthFilter{},
	"ASCIIHexDecode":  asciiHexFilter{},
	"AHx":             asciiHexFilter{},
	"ASCII85Decode":   ascii85Filter{},
	"A85":             ascii85Filter{},
	"DCTDecode":       dctFilter{},
	"DCT":             dctFilter{},
	"JPXDecode":       jpxFilter{},
	"JBIG2Decode":     jbig2Filter{},
	"CCITTFaxDecode":  ccittFilter{},
	"CCF":             ccittFilter{},
	"Crypt":           identityFilter{},
	"Identity":        identityFilter{},
}

// lookupFilter returns the registered filter for a name.
func lookupFilter(name Name) (Filter, error) {
	f, ok := filters[name]
	if !ok {
		return nil, &CodecError{Filter: name, Kind: UnknownFilter}
	}
	return f, nil
}

// filterChain normalizes the stream's Filter and DecodeParms entries into
// parallel slices. Filter may be a single name or an array of names;
// DecodeParms (or its alias DP) follows the same shape, with null standing in
// for absent parameters.
func (s Stream) filterChain() ([]Name, []Dictionary, error) {
	var names []Name
	switch f := s.Dictionary.Get("Filter").(type) {
	case nil:
	case Name:
		names = []Name{f}
	case Array:
		for _, item := range f {
			name, ok := item.(Name)
			if !ok {
				return nil, nil, fmt.Errorf("filter array holds %T, not a name", item)
			}
			names = append(names, name)
		}
	default:
		return nil, nil, fmt.Errorf("Filter is %T, not a name or array", f)
	}

	parms := make([]Dictionary, len(names))
	dp := s.Dictionary.Get("DecodeParms")
	if dp == nil {
		dp = s.Dictionary.Get("DP")
	}
	switch p := dp.(type) {
	case nil:
	case Dictionary:
		if len(parms) > 0 {
			parms[0] = p
		}
	case Array:
		for i := 0; i < len(p) && i < len(parms); i++ {
			if dict, ok := p[i].(Dictionary); ok {
				parms[i] = dict
			}
		}
	}

	return names, parms, nil
}

// DecodeWithResult applies the stream's filter chain in declared order and
// returns the decoded bytes together with any metadata the filters reported.
// Later filters' metadata overwrites earlier filters'.
func (s Stream) DecodeWithResult() ([]byte, DecodeResult, error) {
	raw, err := s.Raw()
	if err != nil {
		return nil, nil, err
	}

	names, parms, err := s.filterChain()
	if err != nil {
		return nil, nil, err
	}
	if len(names) == 0 {
		return raw, nil, nil
	}

	result := make(DecodeResult)
	data := raw
	for i, name := range names {
		f, err := lookupFilter(name)
		if err != nil {
			return nil, nil, err
		}

		var buf bytes.Buffer
		res, err := f.Decode(bytes.NewReader(data), &buf, parms[i], i)
		for k, v := range res {
			result[k] = v
		}
		if err != nil {
			return nil, result, err
		}
		data = buf.Bytes()
	}

	if len(result) == 0 {
		result = nil
	}
	return data, result, nil
}

// Encode encodes data with a single filter. Chained encoding is not needed:
// writers apply one terminal filter per stream.
func Encode(name Name, data []byte, params Dictionary) ([]byte, error) {
	f, err := lookupFilter(name)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := f.Encode(bytes.NewReader(data), &buf, params); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode decodes data with a single named filter, outside any stream context.
func Decode(name Name, data []byte, params Dictionary) ([]byte, error) {
	f, err := lookupFilter(name)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := f.Decode(bytes.NewReader(data), &buf, params, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
