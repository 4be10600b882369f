// Package export renders a graded session into a minimal Word document
// (WordprocessingML inside a zip container) suitable for download.
package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/ysxye29-beep/tracnghiem/internal/quiz"
)

// Renderer builds .docx result sheets. Implements session.Exporter.
type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

const (
	colorCorrect = "008000"
	colorWrong   = "FF0000"
	colorNote    = "1E3A8A"
)

// BuildDocument writes the session outcome: a header, the score line, then
// every question with its options annotated for correctness and the user's
// picks, plus explanations where present.
func (r *Renderer) BuildDocument(data quiz.QuizData, answers quiz.Answers, timeSpent int, score float64) ([]byte, error) {
	var body strings.Builder
	heading(&body, "KET QUA BAI THI TRAC NGHIEM")
	heading(&body, "De tai: "+data.Title)
	paragraph(&body, run(fmt.Sprintf("Ngay lam bai: %s - Thoi gian: %d phut %d giay",
		time.Now().Format("02/01/2006"), timeSpent/60, timeSpent%60), "", false))

	correct := 0
	for _, q := range data.Questions {
		if quiz.AnsweredCorrectly(q, answers) {
			correct++
		}
	}
	paragraph(&body, run(fmt.Sprintf("Diem so: %.1f/10 - Dung: %d/%d cau", score, correct, len(data.Questions)), "", true))

	for i, q := range data.Questions {
		selected := answers[q.ID]
		paragraph(&body, run(fmt.Sprintf("Cau %d: ", i+1), "", true)+run(q.Text, "", false))

		for _, opt := range q.Options {
			color := ""
			bold := false
			suffix := ""
			isCorrect := contains(q.CorrectAnswers, opt.Key)
			isSelected := contains(selected, opt.Key)
			if isCorrect {
				color, bold, suffix = colorCorrect, true, " (dap an dung)"
			}
			if isSelected {
				if isCorrect {
					suffix = " (ban chon dung)"
				} else {
					color, bold, suffix = colorWrong, true, " (ban chon sai)"
				}
			}
			paragraph(&body, run(opt.Key+". "+opt.Text+suffix, color, bold))
		}

		if q.Explanation != "" {
			paragraph(&body, run("Giai thich: ", colorNote, true)+run(q.Explanation, colorNote, false))
		}
		for _, opt := range q.Options {
			if note, ok := q.OptionExplanations[opt.Key]; ok && note != "" {
				paragraph(&body, run(opt.Key+": ", colorNote, true)+run(note, colorNote, false))
			}
		}
	}

	return pack(body.String())
}

// pack assembles the three files a minimal docx needs.
func pack(body string) ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`,
		"_rels/.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body + `</w:body></w:document>`,
	}

	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(content)); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func heading(b *strings.Builder, text string) {
	b.WriteString(`<w:p><w:pPr><w:jc w:val="center"/></w:pPr>`)
	b.WriteString(run(text, "", true))
	b.WriteString(`</w:p>`)
}

func paragraph(b *strings.Builder, runs string) {
	b.WriteString(`<w:p>`)
	b.WriteString(runs)
	b.WriteString(`</w:p>`)
}

func run(text, color string, bold bool) string {
	var props strings.Builder
	if bold {
		props.WriteString(`<w:b/>`)
	}
	if color != "" {
		props.WriteString(`<w:color w:val="` + color + `"/>`)
	}
	var esc bytes.Buffer
	_ = xml.EscapeText(&esc, []byte(text))
	return `<w:r><w:rPr>` + props.String() + `</w:rPr><w:t xml:space="preserve">` + esc.String() + `</w:t></w:r>`
}

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
