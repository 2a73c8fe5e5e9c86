package pdf

import (
	"encoding/binary"
	"errors"
	"io"
)

// JPXCodec decodes JPEG 2000 payloads. The wavelet machinery lives outside
// this package; register an implementation with SetJPXCodec to enable
// JPXDecode.
type JPXCodec interface {
	DecodeJPX(data []byte) ([]byte, error)
}

var jpxCodec JPXCodec

// SetJPXCodec installs the JPEG 2000 decoder used by JPXDecode. Passing nil
// uninstalls it.
func SetJPXCodec(c JPXCodec) {
	jpxCodec = c
}

// JP2 box and codestream marker constants.
const (
	jp2SignatureBox = 0x6A502020 // 'jP  '
	jp2HeaderBox    = 0x6A703268 // 'jp2h'
	jp2ImageHeader  = 0x69686472 // 'ihdr'
	jp2ColorSpec    = 0x636F6C72 // 'colr'

	j2kSOC = 0xFF4F
	j2kSIZ = 0xFF51
	j2kSOD = 0xFF93
	j2kEOC = 0xFFD9
)

var errInvalidJPX = errors.New("invalid JPEG 2000 data")

// JPXInfo describes a JPEG 2000 payload without decoding it.
type JPXInfo struct {
	Width      int
	Height     int
	Components int
	BitDepth   int
	ColorSpace string
}

// jpxFilter implements JPXDecode. The image header is always parsed for
// dimensions; actual decoding happens only when a codec has been registered,
// otherwise the filter reports CodecUnavailable.
type jpxFilter struct{}

func (jpxFilter) Decode(r io.Reader, w io.Writer, params Dictionary, index int) (DecodeResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	result := make(DecodeResult)
	if info, err := ParseJPXInfo(data); err == nil {
		result[Name("Width")] = Integer(info.Width)
		result[Name("Height")] = Integer(info.Height)
		if info.ColorSpace != "" {
			result[Name("ColorSpace")] = Name(info.ColorSpace)
		}
	} else {
		debugf("JPXDecode: unreadable image header: %v", err)
	}

	if jpxCodec == nil {
		return result, &CodecError{Filter: "JPXDecode", Kind: CodecUnavailable}
	}

	decoded, err := jpxCodec.DecodeJPX(data)
	if err != nil {
		return result, &CodecError{Filter: "JPXDecode", Kind: Corrupt, Err: err}
	}
	if _, err := w.Write(decoded); err != nil {
		return nil, err
	}
	return result, nil
}

func (jpxFilter) Encode(r io.Reader, w io.Writer, params Dictionary) error {
	return &CodecError{Filter: "JPXDecode", Kind: EncodeUnsupported}
}

// ParseJPXInfo reads the image header of a JPEG 2000 payload, accepting both
// the JP2 box format and a raw codestream.
func ParseJPXInfo(data []byte) (*JPXInfo, error) {
	if isJP2Format(data) {
		return parseJP2Boxes(data)
	}
	if len(data) >= 2 && binary.BigEndian.Uint16(data) == j2kSOC {
		return parseCodestreamHeader(data)
	}
	return nil, errInvalidJPX
}

func isJP2Format(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	boxLen := binary.BigEndian.Uint32(data[0:4])
	boxType := binary.BigEndian.Uint32(data[4:8])
	return boxLen == 12 && boxType == jp2SignatureBox &&
		binary.BigEndian.Uint32(data[8:12]) == 0x0D0A870A
}

func parseJP2Boxes(data []byte) (*JPXInfo, error) {
	offset := 0
	for offset < len(data)-8 {
		boxLen := int(binary.BigEndian.Uint32(data[offset : offset+4]))
		boxType := binary.BigEndian.Uint32(data[offset+4 : offset+8])

		if boxLen == 0 {
			boxLen = len(data) - offset
		} else if boxLen == 1 {
			if offset+16 > len(data) {
				break
			}
			boxLen = int(binary.BigEndian.Uint64(data[offset+8 : offset+16]))
			offset += 8
		}
		if boxLen < 8 || offset+boxLen > len(data) {
			break
		}

		if boxType == jp2HeaderBox {
			return parseJP2Header(data[offset+8 : offset+boxLen])
		}
		offset += boxLen
	}
	return nil, errInvalidJPX
}

func parseJP2Header(data []byte) (*JPXInfo, error) {
	info := &JPXInfo{}
	offset := 0

	for offset < len(data)-8 {
		boxLen := int(binary.BigEndian.Uint32(data[offset : offset+4]))
		boxType := binary.BigEndian.Uint32(data[offset+4 : offset+8])
		if boxLen < 8 || offset+boxLen > len(data) {
			break
		}

		switch boxType {
		case jp2ImageHeader:
			if boxLen >= 22 {
				info.Height = int(binary.BigEndian.Uint32(data[offset+8 : offset+12]))
				info.Width = int(binary.BigEndian.Uint32(data[offset+12 : offset+16]))
				info.Components = int(binary.BigEndian.Uint16(data[offset+16 : offset+18]))
				info.BitDepth = int(data[offset+18]&0x7F) + 1
			}
		case jp2ColorSpec:
			if boxLen >= 15 && data[offset+8] == 1 {
				switch binary.BigEndian.Uint32(data[offset+11 : offset+15]) {
				case 16:
					info.ColorSpace = "sRGB"
				case 17:
					info.ColorSpace = "Gray"
				case 18:
					info.ColorSpace = "sYCC"
				}
			}
		}
		offset += boxLen
	}

	if info.Width == 0 || info.Height == 0 {
		return nil, errInvalidJPX
	}
	return info, nil
}

// parseCodestreamHeader walks marker segments up to SOD looking for the SIZ
// segment.
func parseCodestreamHeader(data []byte) (*JPXInfo, error) {
	offset := 2
	for offset < len(data)-2 {
		marker := binary.BigEndian.Uint16(data[offset : offset+2])
		offset += 2
		if marker == j2kSOD || marker == j2kEOC {
			break
		}
		if offset+2 > len(data) {
			break
		}
		segLen := int(binary.BigEndian.Uint16(data[offset : offset+2]))
		if segLen < 2 || offset+segLen > len(data) {
			break
		}
		if marker == j2kSIZ {
			return parseSIZ(data[offset : offset+segLen])
		}
		offset += segLen
	}
	return nil, errInvalidJPX
}

func parseSIZ(data []byte) (*JPXInfo, error) {
	if len(data) < 38 {
		return nil, errInvalidJPX
	}
	xsiz := int(binary.BigEndian.Uint32(data[4:8]))
	ysiz := int(binary.BigEndian.Uint32(data[8:12]))
	xosiz := int(binary.BigEndian.Uint32(data[12:16]))
	yosiz := int(binary.BigEndian.Uint32(data[16:20]))
	csiz := int(binary.BigEndian.Uint16(data[36:38]))

	info := &JPXInfo{
		Width:      xsiz - xosiz,
		Height:     ysiz - yosiz,
		Components: csiz,
	}
	if len(data) >= 39 {
		info.BitDepth = int(data[38]&0x7F) + 1
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, errInvalidJPX
	}
	return info, nil
}
