package fix

import (
	"embed"
	"sync"
)

//go:embed dictionaries/*.xml
var bundled embed.FS

var fix44 = sync.OnceValues(func() (*Dictionary, error) {
	return LoadDictionaryFS(bundled, "dictionaries/FIX44.xml")
})

// FIX44 returns the bundled FIX 4.4 dictionary. It carries the session
// messages and the common order flow messages.
func FIX44() (*Dictionary, error) {
	return fix44()
}

// MustFIX44 is like FIX44 but panics if the bundled dictionary fails to load.
func MustFIX44() *Dictionary {
	d, err := fix44()
	if err != nil {
		panic(err)
	}
	return d
}
