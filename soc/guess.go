package soc

import (
	"bytes"
	"strconv"

	"github.com/go-errors/errors"
	"github.com/grafana/regexp"
)

// ErrNotFound is returned when no SoC identifier is present in the image.
var ErrNotFound = errors.Errorf("unable to determine the SoC type from the boot image")

var (
	// S5123AP_PROD_<build data>_YYYYMMDD
	withDate = regexp.MustCompile(`(?s)(?P<soc>S[0-9]{3,}(?:AP)?)_PROD_(?:[^_]+_[^\d_][^_]*)*(?P<date>[0-9]{8})[^\x00]*`)
	// OEM modified images only carry the SoC id.
	withoutDate = regexp.MustCompile(`(?s)(?P<soc>S[0-9]{3,}(?:AP)?).{0,10}[^\x00]*`)
)

const motoSoC = "S337AP"

var motoMarker = []byte("SGCS_QB")

// Version is the SoC name and the build date, a rough revision indicator.
type Version struct {
	Name string
	Date int
}

// Guess searches the image for the SoC build string.
func Guess(main []byte) (Version, error) {
	var v Version
	m := withDate.FindSubmatch(main)
	if m != nil {
		v.Name = string(m[withDate.SubexpIndex("soc")])
		v.Date, _ = strconv.Atoi(string(m[withDate.SubexpIndex("date")]))
	} else {
		m = withoutDate.FindSubmatch(main)
		if m == nil {
			return v, ErrNotFound
		}
		v.Name = string(m[withoutDate.SubexpIndex("soc")])
	}

	// Moto images carry an ID number instead of a date.
	if v.Name == motoSoC {
		idx := bytes.LastIndex(m[0], motoMarker)
		if idx < 0 {
			return v, errors.Errorf("%s image without %s build id", motoSoC, motoMarker)
		}
		id, err := strconv.Atoi(string(m[0][idx+len(motoMarker):]))
		if err != nil {
			return v, errors.WrapPrefix(err, "moto build id", 0)
		}
		v.Date = id
	}
	return v, nil
}
