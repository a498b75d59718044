package sitegen

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/xelns/xelns-web/internal/entity"
	"github.com/xelns/xelns-web/internal/snapshot"
	"github.com/xelns/xelns-web/internal/xerrors"
)

// ErrNoInjectionPoint means the entry document has neither a module script
// nor a closing head tag.
var ErrNoInjectionPoint = errors.New("sitegen: no injection point in entry document")

// BootstrapScript renders the inline script that seeds a visitor's storage
// from snap. It leaves an admin session alone and skips a stamp that was
// already applied; otherwise it writes every collection to its storage key
// and records the stamp.
func BootstrapScript(snap *snapshot.Snapshot) (string, error) {
	// json.Marshal escapes <, > and &, so "</script>" cannot appear in the output
	data, err := snapshot.Encode(snap.Sanitize())
	if err != nil {
		return "", err
	}
	keys, err := json.Marshal(entity.PublishKeyMap())
	if err != nil {
		return "", xerrors.Wrap(err, "encode key map")
	}
	return fmt.Sprintf(
		`(function(){try{var s=%s;var m=%s;var pk=%q;var ak=%q;`+
			`if(localStorage.getItem(ak)==="true")return;`+
			`var id=s.%s||"";`+
			`if(id&&localStorage.getItem(pk)===JSON.stringify(id))return;`+
			`Object.keys(m).forEach(function(k){if(typeof s[k]!=="undefined"){localStorage.setItem(m[k],JSON.stringify(s[k]));}});`+
			`if(id){localStorage.setItem(pk,JSON.stringify(id));}`+
			`}catch(e){}})();`,
		data, keys, entity.PublishedIDKey, entity.AdminSessionKey, snapshot.StampField,
	), nil
}

// Inject inserts <script>script</script> followed by a newline immediately
// before the first <script type="module"> start tag, or before </head> when
// the document has no module script.
func Inject(doc []byte, script string) ([]byte, error) {
	at, err := injectionOffset(doc)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	out.Grow(len(doc) + len(script) + 20)
	out.Write(doc[:at])
	out.WriteString("<script>")
	out.WriteString(script)
	out.WriteString("</script>\n")
	out.Write(doc[at:])
	return out.Bytes(), nil
}

// injectionOffset walks the document's tokens and returns the byte offset of
// the first module script tag, falling back to the first </head>.
func injectionOffset(doc []byte) (int, error) {
	z := html.NewTokenizer(bytes.NewReader(doc))
	offset := 0
	headEnd := -1
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				break
			}
			return 0, xerrors.Wrap(z.Err(), "tokenize entry document")
		}
		start := offset
		offset += len(z.Raw())

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) == "script" && hasAttr && isModuleScript(z) {
				return start, nil
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == "head" && headEnd < 0 {
				headEnd = start
			}
		}
	}
	if headEnd >= 0 {
		return headEnd, nil
	}
	return 0, ErrNoInjectionPoint
}

func isModuleScript(z *html.Tokenizer) bool {
	for {
		key, val, more := z.TagAttr()
		if string(key) == "type" && strings.EqualFold(strings.TrimSpace(string(val)), "module") {
			return true
		}
		if !more {
			return false
		}
	}
}
