package buildinfo

// Ces variables sont typiquement injectées à la compilation via -ldflags.
// Exemple :
//
//	-X github.com/AstronomickaExpedice/bzarchive/internal/buildinfo.Version=v0.1.0
//	-X github.com/AstronomickaExpedice/bzarchive/internal/buildinfo.Commit=abcdef
//	-X github.com/AstronomickaExpedice/bzarchive/internal/buildinfo.Date=2026-08-26
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)
