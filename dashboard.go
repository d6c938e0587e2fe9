package main

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"diagnostics-dashboard/catalog"
)

// serviceIcons maps service ids to card icons. Icons are a presentation
// concern and are kept out of the catalog.
var serviceIcons = map[string]template.HTML{
	"skin-cancer":     iconMicroscope,
	"breast-cancer":   iconMicroscope,
	"lung-cancer":     iconStethoscope,
	"tuberculosis":    iconStethoscope,
	"parkinsons":      iconBrain,
	"medical-records": iconFileText,
}

const (
	iconMicroscope  template.HTML = `<svg class="icon" viewBox="0 0 24 24" aria-label="microscope"><path d="M6 18h8M3 22h18M14 22a7 7 0 1 0 0-14M9 14h2M9 12a2 2 0 0 1-2-2V6h6v4a2 2 0 0 1-2 2zM12 6V3a1 1 0 0 0-1-1H9a1 1 0 0 0-1 1v3"/></svg>`
	iconStethoscope template.HTML = `<svg class="icon" viewBox="0 0 24 24" aria-label="stethoscope"><path d="M4.8 2.3A.3.3 0 1 0 5 2H4a2 2 0 0 0-2 2v5a6 6 0 0 0 6 6 6 6 0 0 0 6-6V4a2 2 0 0 0-2-2h-1a.2.2 0 1 0 .3.3M8 15v1a6 6 0 0 0 6 6 6 6 0 0 0 6-6v-4"/><circle cx="20" cy="10" r="2"/></svg>`
	iconBrain       template.HTML = `<svg class="icon" viewBox="0 0 24 24" aria-label="brain"><path d="M12 5a3 3 0 1 0-5.997.125 4 4 0 0 0-2.526 5.77 4 4 0 0 0 .556 6.588A4 4 0 1 0 12 18zM12 5a3 3 0 1 1 5.997.125 4 4 0 0 1 2.526 5.77 4 4 0 0 1-.556 6.588A4 4 0 1 1 12 18z"/></svg>`
	iconFileText    template.HTML = `<svg class="icon" viewBox="0 0 24 24" aria-label="file"><path d="M15 2H6a2 2 0 0 0-2 2v16a2 2 0 0 0 2 2h12a2 2 0 0 0 2-2V7zM14 2v4a2 2 0 0 0 2 2h4M10 9H8M16 13H8M16 17H8"/></svg>`
)

func iconFor(id string) template.HTML {
	if icon, ok := serviceIcons[id]; ok {
		return icon
	}
	return iconFileText
}

func recordURL(serviceID string) string {
	return "/service/" + serviceID
}

// serviceCard is the render model for one dashboard card.
type serviceCard struct {
	ID          string
	Title       string
	Description string
	InputLabel  string
	InputGlyph  string
	Icon        template.HTML
	IsFile      bool
	Accept      string
	Multiple    bool
	Uploading   bool
	RecordURL   string
}

func buildCards(uploading func(string) bool) []serviceCard {
	services := catalog.All()
	cards := make([]serviceCard, 0, len(services))
	for _, s := range services {
		c := serviceCard{
			ID:          s.ID,
			Title:       s.Title,
			Description: s.Description,
			InputLabel:  s.InputDescription(),
			Icon:        iconFor(s.ID),
		}
		if s.AcceptsFiles() {
			c.IsFile = true
			c.InputGlyph = "file-upload"
			c.Accept = s.Input.FileConfig.Accept
			c.Multiple = s.Input.FileConfig.Multiple
			c.Uploading = uploading(s.ID)
		} else {
			c.InputGlyph = "microphone"
			c.RecordURL = recordURL(s.ID)
		}
		cards = append(cards, c)
	}
	return cards
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(dashboardHTML))

// DashboardHandler implements GET / and renders the services section.
func (h *Handlers) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	data := struct{ Cards []serviceCard }{Cards: buildCards(h.Uploader.Status().Get)}
	if err := dashboardTmpl.Execute(&buf, data); err != nil {
		h.Log.Error().Err(err).Msg("render dashboard")
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

var recordingTmpl = template.Must(template.New("recording").Parse(recordingHTML))

// RecordingPageHandler implements GET /service/{serviceID} for audio
// services. The recorder itself is served by the frontend; this page only
// shows the declared recording constraints.
func (h *Handlers) RecordingPageHandler(w http.ResponseWriter, r *http.Request) {
	svc, ok := catalog.Lookup(chi.URLParam(r, "serviceID"))
	if !ok || !svc.AcceptsAudio() || svc.Input.AudioConfig == nil {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	data := struct {
		Service catalog.Service
		Audio   catalog.AudioConfig
		Icon    template.HTML
	}{Service: svc, Audio: *svc.Input.AudioConfig, Icon: iconFor(svc.ID)}
	if err := recordingTmpl.Execute(&buf, data); err != nil {
		h.Log.Error().Err(err).Str("service_id", svc.ID).Msg("render recording page")
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

const pageStyle = `
    * { box-sizing: border-box; }
    body { margin: 0; background: #f9fafb; color: #1f2937; font-family: "Helvetica Neue", Helvetica, Arial, sans-serif; }
    section { margin-top: 4rem; padding: 0 1rem; }
    h2 { font-size: 1.875rem; font-weight: 700; margin-bottom: 2.5rem; text-align: center; }
    .grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(320px, 1fr)); gap: 2rem; max-width: 80rem; margin: 0 auto; }
    .card { background: #fff; border-radius: .75rem; box-shadow: 0 10px 15px rgba(0,0,0,.1); padding: 1.5rem; transition: box-shadow .2s, transform .2s; }
    .card:hover { box-shadow: 0 20px 25px rgba(0,0,0,.12); transform: scale(1.02); }
    .card-head { display: flex; align-items: center; margin-bottom: 1rem; }
    .icon-wrap { width: 3rem; height: 3rem; border-radius: 9999px; background: #cffafe; display: flex; align-items: center; justify-content: center; margin-right: 1rem; }
    .icon { width: 1.5rem; height: 1.5rem; fill: none; stroke: #0e7490; stroke-width: 2; stroke-linecap: round; stroke-linejoin: round; }
    h3 { font-size: 1.25rem; font-weight: 600; margin: 0; }
    .desc { color: #4b5563; margin-bottom: 1rem; }
    .input-type { font-size: .875rem; color: #6b7280; margin-bottom: 1rem; }
    .hidden { display: none; }
    .btn { width: 100%; border: 0; border-radius: .375rem; padding: .6rem 1rem; background: #06b6d4; color: #fff; font-size: 1rem; cursor: pointer; }
    .btn:hover { background: #0891b2; }
    .btn[disabled] { opacity: .6; cursor: not-allowed; }
    #toasts { position: fixed; right: 1rem; bottom: 1rem; display: flex; flex-direction: column; gap: .5rem; }
    .toast { min-width: 260px; padding: .75rem 1rem; border-radius: .5rem; background: #fff; box-shadow: 0 10px 15px rgba(0,0,0,.15); }
    .toast.destructive { background: #dc2626; color: #fff; }
    .toast strong { display: block; }
`

const dashboardHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Available Services</title>
  <style>` + pageStyle + `</style>
</head>
<body>
<section>
  <h2>Available Services</h2>
  <div class="grid">
  {{- range .Cards}}
    <div class="card" data-service="{{.ID}}">
      <div class="card-head">
        <div class="icon-wrap">{{.Icon}}</div>
        <h3>{{.Title}}</h3>
      </div>
      <p class="desc">{{.Description}}</p>
      <div class="input-type"><i class="fas fa-{{.InputGlyph}}"></i> <span>Input Type: {{.InputLabel}}</span></div>
      {{- if .IsFile}}
      <div>
        <input type="file" id="file-{{.ID}}" class="hidden file-input" data-service="{{.ID}}" accept="{{.Accept}}"{{if .Multiple}} multiple{{end}} />
        <button type="button" class="btn upload-btn" data-target="file-{{.ID}}"{{if .Uploading}} disabled{{end}}>{{if .Uploading}}Uploading...{{else}}Upload Files{{end}}</button>
      </div>
      {{- else}}
      <a href="{{.RecordURL}}"><button type="button" class="btn">Start Recording</button></a>
      {{- end}}
    </div>
  {{- end}}
  </div>
</section>
<div id="toasts"></div>
<script>
(function () {
  function toast(n) {
    var el = document.createElement("div");
    el.className = "toast " + (n.variant || "default");
    var t = document.createElement("strong");
    t.textContent = n.title;
    var d = document.createElement("span");
    d.textContent = n.description;
    el.appendChild(t);
    el.appendChild(d);
    document.getElementById("toasts").appendChild(el);
    setTimeout(function () { el.remove(); }, 5000);
  }

  document.querySelectorAll(".upload-btn").forEach(function (btn) {
    btn.addEventListener("click", function () {
      var input = document.getElementById(btn.dataset.target);
      if (input) { input.click(); }
    });
  });

  document.querySelectorAll(".file-input").forEach(function (input) {
    input.addEventListener("change", function () {
      if (!input.files || input.files.length === 0) { return; }
      var id = input.dataset.service;
      var btn = document.querySelector('[data-target="file-' + id + '"]');
      var form = new FormData();
      Array.prototype.forEach.call(input.files, function (f) { form.append("files", f, f.name); });

      btn.disabled = true;
      btn.textContent = "Uploading...";
      fetch("/api/services/" + encodeURIComponent(id) + "/upload", { method: "POST", body: form })
        .then(function (resp) { return resp.json(); })
        .then(function (body) {
          toast(body.notification || { title: "Error", description: "Failed to upload files", variant: "destructive" });
        })
        .catch(function (err) {
          console.error("Upload error:", err);
          toast({ title: "Error", description: "Failed to upload files", variant: "destructive" });
        })
        .finally(function () {
          btn.disabled = false;
          btn.textContent = "Upload Files";
          input.value = "";
        });
    });
  });
})();
</script>
</body>
</html>
`

const recordingHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{.Service.Title}}</title>
  <style>` + pageStyle + `</style>
</head>
<body>
<section>
  <div class="grid">
    <div class="card" data-service="{{.Service.ID}}">
      <div class="card-head">
        <div class="icon-wrap">{{.Icon}}</div>
        <h3>{{.Service.Title}}</h3>
      </div>
      <p class="desc">{{.Service.Description}}</p>
      <ul class="input-type">
        <li>Maximum duration: {{.Audio.MaxDuration}} seconds</li>
        <li>Sample rate: {{.Audio.SampleRate}} Hz</li>
        <li>Channels: {{.Audio.Channels}}</li>
      </ul>
      <a href="/"><button type="button" class="btn">Back to services</button></a>
    </div>
  </div>
</section>
</body>
</html>
`
