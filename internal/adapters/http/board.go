package web

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"

	noticeDomain "petnotice/internal/domain/notice"
)

// boardTemplate is the server-rendered notice board. The mobile apps are the
// primary clients; this page exists so a browser can read and post notices
// without them.
const boardTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Pet Notice Board</title>
<style>
body { font-family: sans-serif; max-width: 640px; margin: 2rem auto; padding: 0 1rem; }
.notice { border: 1px solid #ddd; border-radius: 8px; padding: 1rem; margin-bottom: 1rem; }
.notice img { max-width: 100%; border-radius: 4px; }
.notice time { color: #777; font-size: 0.85rem; }
form { border: 1px solid #ddd; border-radius: 8px; padding: 1rem; margin-bottom: 2rem; }
form input[type=text], form textarea { width: 100%; margin-bottom: 0.5rem; }
</style>
</head>
<body>
<h1>Pet Notice Board</h1>

<form action="/board/notices" method="post" enctype="multipart/form-data">
  {{ csrfField }}
  <input type="text" name="title" placeholder="Title" required>
  <textarea name="content" rows="4" placeholder="What happened today? (Markdown supported)" required></textarea>
  <input type="file" name="image" accept=".jpg,.jpeg,.png,.gif">
  <button type="submit">Post notice</button>
</form>

{{ range .Notices }}
<div class="notice">
  <h2>{{ .Title }}</h2>
  <time datetime="{{ .CreatedAt.Format "2006-01-02T15:04:05Z07:00" }}">{{ .CreatedAt.Format "2 Jan 2006 15:04" }}</time>
  {{ renderMarkdown .Content }}
  {{ if .HasImage }}<img src="{{ .ImagePath }}" alt="notice photo">{{ end }}
</div>
{{ else }}
<p>No notices yet.</p>
{{ end }}
</body>
</html>`

// handleBoard renders the notice board for GET /.
// The root pattern catches every otherwise-unmatched path, so anything that is
// not exactly "/" is a 404.
func handleBoard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	notices, err := stores.NoticeStore.ListAll(r.Context())
	if err != nil {
		slog.Error("board_list_failed", "error", err.Error())
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	funcMap := template.FuncMap{
		"csrfField": func() template.HTML { return csrf.TemplateField(r) },
		"renderMarkdown": func(md string) template.HTML {
			return template.HTML(renderMarkdownHTML(md))
		},
	}
	tmpl, err := template.New("board").Funcs(funcMap).Parse(boardTemplate)
	if err != nil {
		slog.Error("board_template_failed", "error", err.Error())
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct{ Notices []noticeDomain.Notice }{Notices: notices}
	if err := tmpl.Execute(w, data); err != nil {
		slog.Error("board_render_failed", "error", err.Error())
	}
}

// handleBoardCreate handles the board form submission (POST /board/notices).
// Same create pipeline as the JSON API, but CSRF-protected and answering with
// a redirect back to the board.
func handleBoardCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes+maxFormOverheadBytes)
	if _, reqErr := processCreate(r); reqErr != nil {
		http.Error(w, reqErr.msg, reqErr.status)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
