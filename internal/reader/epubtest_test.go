package reader

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

// testEpubBytes builds a minimal valid EPUB with one chapter per given
// paragraph text.
func testEpubBytes(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	if len(paragraphs) == 0 {
		t.Fatal("testEpubBytes: need at least one chapter")
	}

	var manifest, spine strings.Builder
	files := make(map[string]string)
	for i, text := range paragraphs {
		name := fmt.Sprintf("ch%d", i+1)
		fmt.Fprintf(&manifest, `<item id="%s" href="%s.xhtml" media-type="application/xhtml+xml"/>`, name, name)
		fmt.Fprintf(&spine, `<itemref idref="%s"/>`, name)
		files["OEBPS/"+name+".xhtml"] = fmt.Sprintf(
			`<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>%s</title></head>
<body><p>%s</p></body></html>`, name, text)
	}

	files["META-INF/container.xml"] = containerXML
	files["OEBPS/content.opf"] = fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="bid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Steppe Wind</dc:title>
    <dc:creator>A. Qadyrov</dc:creator>
    <dc:identifier id="bid">urn:uuid:6f1f9f2e-test</dc:identifier>
    <dc:language>en</dc:language>
  </metadata>
  <manifest>%s</manifest>
  <spine>%s</spine>
</package>`, manifest.String(), spine.String())

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	// mimetype must be the first entry.
	mt, err := zw.Create("mimetype")
	if err != nil {
		t.Fatalf("testEpubBytes: create mimetype: %v", err)
	}
	if _, err := mt.Write([]byte("application/epub+zip")); err != nil {
		t.Fatalf("testEpubBytes: write mimetype: %v", err)
	}
	for name, content := range files {
		fw, err := zw.Create(name)
		if err != nil {
			t.Fatalf("testEpubBytes: create %s: %v", name, err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("testEpubBytes: write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("testEpubBytes: close: %v", err)
	}
	return buf.Bytes()
}

// writeTestEpub writes a fixture EPUB into a temp dir and returns its path.
func writeTestEpub(t *testing.T, paragraphs ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.epub")
	if err := os.WriteFile(path, testEpubBytes(t, paragraphs...), 0644); err != nil {
		t.Fatalf("writeTestEpub: %v", err)
	}
	return path
}

// drainEvents consumes and returns all currently buffered events.
func drainEvents(events <-chan Event) []Event {
	var out []Event
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}
