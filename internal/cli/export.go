// ABOUTME: quill export - render a parsed conversation to a standalone HTML page
// ABOUTME: Message content is treated as markdown and converted with goldmark

package cli

import (
	"bytes"
	"fmt"
	"html/template"
	"os"

	"github.com/spf13/cobra"
	"github.com/yuin/goldmark"

	"github.com/2389/quill/internal/parser"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export a chat document as HTML",
		Long:  "Parse a chat document and render the conversation as a standalone HTML page, converting message markdown with goldmark.",
		Args:  cobra.ExactArgs(1),
		Run:   runExport,
	}
	cmd.Flags().StringP("output", "o", "", "Write HTML to this file instead of stdout")
	cmd.Flags().String("title", "", "Page title (default: document file name)")
	RootCmd.AddCommand(cmd)
}

var exportTemplate = template.Must(template.New("export").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; }
.message { margin: 1.5rem 0; padding: 0.75rem 1rem; border-radius: 6px; }
.message .role { font-size: 0.8rem; font-weight: bold; text-transform: uppercase; color: #666; }
.message.system { background: #f3eefc; }
.message.user { background: #eef4fc; }
.message.assistant { background: #eefcf1; }
pre { background: #f6f6f6; padding: 0.5rem; overflow-x: auto; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Messages}}<div class="message {{.Role}}">
<div class="role">{{.Role}}</div>
{{.Body}}
</div>
{{end}}</body>
</html>
`))

type exportMessage struct {
	Role string
	Body template.HTML
}

func runExport(cmd *cobra.Command, args []string) {
	output, _ := cmd.Flags().GetString("output")
	title, _ := cmd.Flags().GetString("title")
	if title == "" {
		title = args[0]
	}

	g := loadGlobal()
	s, cleanup := newSession(g, args[0])
	defer cleanup()

	buf := loadBuffer(args[0])
	msgs, _, err := s.BuildRequest(buf, parser.Options{TitleSet: true})
	if err != nil {
		exitErr("build request", err)
	}

	rendered := make([]exportMessage, 0, len(msgs))
	for _, msg := range msgs {
		var body bytes.Buffer
		if err := goldmark.Convert([]byte(msg.Content), &body); err != nil {
			exitErr("convert markdown", err)
		}
		rendered = append(rendered, exportMessage{
			Role: string(msg.Role),
			Body: template.HTML(body.String()),
		})
	}

	var page bytes.Buffer
	data := struct {
		Title    string
		Messages []exportMessage
	}{Title: title, Messages: rendered}
	if err := exportTemplate.Execute(&page, data); err != nil {
		exitErr("render page", err)
	}

	if output == "" {
		fmt.Print(page.String())
		return
	}
	if err := os.WriteFile(output, page.Bytes(), 0o644); err != nil {
		exitErr("write output", err)
	}
}
