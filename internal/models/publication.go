package models

import "time"

// Publication social/informational post
type Publication struct {
	ID         int       `json:"id"`
	Title      string    `json:"titulo"`
	Body       string    `json:"descripcion"`
	ImageURL   string    `json:"imagenUrl,omitempty"`
	AuthorID   int       `json:"idUsuario"`
	AuthorName string    `json:"nombreUsuario"`
	Category   string    `json:"categoria"`
	Priority   string    `json:"prioridad"` // "Baja" | "Normal" | "Alta" | "Urgente"
	Pinned     bool      `json:"fijada"`
	Tags       []string  `json:"etiquetas"`
	CreatedAt  time.Time `json:"fechaPublicacion"`
	Active     bool      `json:"estado"`

	Reactions int `json:"totalReacciones"`
	Comments  int `json:"totalComentarios"`
	Views     int `json:"totalVistas"`
	Saves     int `json:"totalGuardados"`

	// per-viewer flags returned by the backend
	ReactedByMe bool `json:"usuarioReacciono"`
	SavedByMe   bool `json:"usuarioGuardo"`
}

// PublicationRequest body of POST/PUT /Publication
type PublicationRequest struct {
	Title    string   `json:"titulo"`
	Body     string   `json:"descripcion"`
	ImageURL string   `json:"imagenUrl,omitempty"`
	Category string   `json:"categoria"`
	Priority string   `json:"prioridad"`
	Pinned   bool     `json:"fijada"`
	Tags     []string `json:"etiquetas,omitempty"`
}

// Comment on a publication
type Comment struct {
	ID            int       `json:"id"`
	PublicationID int       `json:"idPublicacion"`
	AuthorID      int       `json:"idUsuario"`
	AuthorName    string    `json:"nombreUsuario"`
	Content       string    `json:"contenido"`
	CreatedAt     time.Time `json:"fechaComentario"`
}

// PublicationCategories fixed list offered by the create form
var PublicationCategories = []string{"Prevención", "Alerta", "Noticia", "Evento", "Educación"}
