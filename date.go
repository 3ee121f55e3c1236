package epubtidy

import "regexp"

// datePattern matches a one- or two-digit serial, a dot and a compact
// YYYYMMDD date, e.g. "00.20160727". Any decimal digit counts, so
// full-width "０１.２０１６０７２７" matches too.
var datePattern = regexp.MustCompile(`(\p{Nd}{1,2}\.)(\p{Nd}{4})(\p{Nd}{2})(\p{Nd}{2})`)

// ConvertDates rewrites every "NN.YYYYMMDD" in s to "【YYYY-MM-DD】",
// dropping the serial. The rewrite is purely syntactic: "00.20161399"
// becomes "【2016-13-99】".
func ConvertDates(s string) string {
	return datePattern.ReplaceAllString(s, "【${2}-${3}-${4}】")
}
