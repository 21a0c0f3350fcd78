package server

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Vbalimidi/Anime-Recomender-System/internal/models"
	"github.com/Vbalimidi/Anime-Recomender-System/internal/recommend"
)

// formData drives the web form template.
type formData struct {
	InputAnime    string
	InputUser     string
	AnimeResults  []models.RankedResult
	HybridResults []models.HybridResult
	Suggestions   []string
	Message       string
}

var formTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>Anime Recommender</title>
  <style>
    body { font-family: sans-serif; max-width: 52rem; margin: 2rem auto; padding: 0 1rem; }
    form { margin-bottom: 1.5rem; }
    input[type=text] { width: 20rem; padding: 0.3rem; }
    li { margin-bottom: 0.8rem; }
    .genres { color: #666; font-size: 0.9em; }
    .synopsis { font-size: 0.9em; }
  </style>
</head>
<body>
  <h1>Anime Recommender</h1>
  <form method="POST" action="/">
    <label>Anime name: <input type="text" name="anime_name" value="{{.InputAnime}}"></label>
    <label>or user id: <input type="text" name="user_id" value="{{.InputUser}}"></label>
    <button type="submit">Recommend</button>
  </form>
  {{if .Message}}<p>{{.Message}}</p>{{end}}
  {{if .Suggestions}}
    <p>Did you mean:
    {{range .Suggestions}}<a href="?">{{.}}</a> {{end}}
    </p>
  {{end}}
  {{if .AnimeResults}}
    <h2>Similar to {{.InputAnime}}</h2>
    <ol>
    {{range .AnimeResults}}
      <li><strong>{{.Name}}</strong> ({{printf "%.3f" .Similarity}})<br>
        <span class="genres">{{.Genres}}</span><br>
        <span class="synopsis">{{.Synopsis}}</span></li>
    {{end}}
    </ol>
  {{end}}
  {{if .HybridResults}}
    <h2>Recommendations for user {{.InputUser}}</h2>
    <ol>
    {{range .HybridResults}}
      <li><strong>{{.Name}}</strong> ({{printf "%.2f" .Score}})</li>
    {{end}}
    </ol>
  {{end}}
</body>
</html>
`))

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	s.renderForm(w, &formData{})
}

// handleFormSubmit serves the POST side of the form: an anime name runs the
// content recommender, a user id the hybrid one. Any failure degrades to a
// message on the page, never an error status.
func (s *Server) handleFormSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderForm(w, &formData{Message: "Invalid form submission."})
		return
	}
	animeName := strings.TrimSpace(r.PostFormValue("anime_name"))
	userField := strings.TrimSpace(r.PostFormValue("user_id"))
	snap := s.provider.Current()
	data := &formData{InputAnime: animeName, InputUser: userField}

	switch {
	case animeName != "":
		results, err := snap.Anime.Recommend(r.Context(), animeName, s.config.Recommend.DefaultLimit)
		if err != nil {
			s.logger.Info("form anime recommend failed", zap.String("name", animeName), zap.Error(err))
			data.Message = "No recommendations found."
			if errors.Is(err, recommend.ErrNotFound) {
				data.Suggestions = snap.Catalog.Suggest(animeName, 3)
			}
			break
		}
		data.AnimeResults = results
	case userField != "":
		userID, err := strconv.ParseInt(userField, 10, 64)
		if err != nil {
			data.Message = "User id must be a number."
			break
		}
		results, err := snap.Hybrid.Recommend(r.Context(), userID, recommend.HybridOptions{
			UserWeight:    s.config.Recommend.UserWeight,
			ContentWeight: s.config.Recommend.ContentWeight,
			TopKUsers:     s.config.Recommend.TopKUsers,
			TopKContent:   s.config.Recommend.TopKContent,
			Limit:         s.config.Recommend.DefaultLimit,
		})
		if err != nil {
			s.logger.Info("form hybrid recommend failed", zap.Int64("user_id", userID), zap.Error(err))
			data.Message = "No recommendations found."
			break
		}
		data.HybridResults = results
	default:
		data.Message = "Enter an anime name or a user id."
	}

	s.renderForm(w, data)
}

func (s *Server) renderForm(w http.ResponseWriter, data *formData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := formTemplate.Execute(w, data); err != nil {
		s.logger.Error("form render failed", zap.Error(err))
	}
}
