package core

// resolve.go discovers which raw header plays each semantic role.
//
// Source spreadsheets are authored by hand and their headers drift between
// files and years ("tractor", "tractomula", "equipo", ...). Each role is a
// fixed list of substring patterns in priority order; the first pattern that
// matches any header wins, so earlier patterns encode which naming convention
// is most trustworthy.

import "strings"

// Role is a named, priority-ordered list of header patterns.
type Role struct {
	Name     string
	Patterns []string
}

// Column roles of the operations log.
var (
	RoleOperationsEquipment = Role{Name: "equipment", Patterns: []string{"tractor", "tractomula", "equipo"}}
	RoleOperationsDate      = Role{Name: "date", Patterns: []string{"fecha_de_movimiento", "fecha_movimiento", "fecha", "periodo", "dia"}}
	RoleTonnage             = Role{Name: "tonnage", Patterns: []string{"peso_neto", "tonelada", "tn", "tm", "peso", "produccion", "carga"}}
)

// Column roles of the maintenance log.
var (
	RoleMaintenanceEquipment = Role{Name: "equipment", Patterns: []string{"equipo", "tractor", "tractomula"}}
	RoleOrderClass           = Role{Name: "class", Patterns: []string{"clase"}}
	RoleOrderStart           = Role{Name: "start", Patterns: []string{"fecha_inicio", "inicio", "fecha_creacion"}}
	RoleOrderEnd             = Role{Name: "end", Patterns: []string{"fecha_fin", "fin", "fecha_cierre"}}
	RoleOrderDuration        = Role{Name: "duration", Patterns: []string{"dias_om", "dias", "duracion", "tiempo", "dias_or"}}
)

// Period fallback roles shared by both sources.
var (
	RoleMonth = Role{Name: "month", Patterns: []string{"mes"}}
	RoleYear  = Role{Name: "year", Patterns: []string{"ano", "anio", "year"}}
)

// ResolveColumn returns the first header containing the highest-priority
// pattern. Patterns are tried in order and, for each pattern, headers are
// scanned in order. Returns "" when nothing matches.
func ResolveColumn(headers, patterns []string) string {
	for _, p := range patterns {
		for _, h := range headers {
			if strings.Contains(h, p) {
				return h
			}
		}
	}
	return ""
}

// Resolve applies [ResolveColumn] with the role's patterns.
func (r Role) Resolve(headers []string) string {
	return ResolveColumn(headers, r.Patterns)
}

// ResolveDateColumn returns the first header that mentions "fecha" or ends in
// "_date". Used for the maintenance log, whose main date column has no
// stable name.
func ResolveDateColumn(headers []string) string {
	for _, h := range headers {
		if strings.Contains(h, "fecha") || strings.HasSuffix(h, "_date") {
			return h
		}
	}
	return ""
}
