package production

// Tone is the badge color family of a status or priority.
type Tone string

const (
	ToneBlue   Tone = "info"
	ToneYellow Tone = "warning"
	ToneRed    Tone = "error"
	ToneGreen  Tone = "success"
	ToneViolet Tone = "secondary"
	ToneGray   Tone = "neutral"
)

// StatusInfo describes one display status of a batch.
type StatusInfo struct {
	Code  string
	Label string
	Tone  Tone
}

// Only the first two raw codes are known; the rest are matched by label.
var statusTable = []StatusInfo{
	{Code: "1", Label: "Programada", Tone: ToneBlue},
	{Code: "2", Label: "Separação", Tone: ToneYellow},
	{Label: "Pendente", Tone: ToneYellow},
	{Label: "Cancelada", Tone: ToneRed},
	{Label: "Em Produção", Tone: ToneViolet},
	{Label: "Concluída", Tone: ToneGreen},
}

// Statuses returns the status table in display order.
func Statuses() []StatusInfo {
	out := make([]StatusInfo, len(statusTable))
	copy(out, statusTable)
	return out
}

// StatusFilterOptions returns the filter choices, StatusAll first.
func StatusFilterOptions() []string {
	out := make([]string, 0, len(statusTable)+1)
	out = append(out, StatusAll)
	for _, s := range statusTable {
		out = append(out, s.Label)
	}
	return out
}

// StatusTone picks the badge tone from the raw status code, falling back to
// the label for bridges that only fill descStatus.
func StatusTone(code, label string) Tone {
	for _, s := range statusTable {
		if (s.Code != "" && s.Code == code) || s.Label == label {
			return s.Tone
		}
	}
	return ToneGray
}

func PriorityTone(label string) Tone {
	switch label {
	case "Alta":
		return ToneRed
	case "Média":
		return ToneYellow
	case "Baixa":
		return ToneGreen
	default:
		return ToneGray
	}
}

func validStatusFilter(v string) bool {
	if v == StatusAll || v == "" {
		return true
	}
	for _, s := range statusTable {
		if s.Label == v {
			return true
		}
	}
	return false
}
