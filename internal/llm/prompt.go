package llm

import "fmt"

// BuildPrompt assembles the fixed-format extraction instruction. The
// schema and the unit rules (meters, fractions not percentages) mirror the
// RuleRecord invariants so the reply can be decoded directly.
func BuildPrompt(excerpt, zoneCode string) string {
	return fmt.Sprintf(`Tu analyses un extrait de règlement de PLU (Plan Local d'Urbanisme) pour la zone %s.

Réponds UNIQUEMENT avec un objet JSON, sans texte avant ni après, au format exact :
{
  "zone": "%s",
  "hauteur_maximale": <nombre en mètres ou null>,
  "nombre_etages_max": <nombre entier ou null>,
  "emprise_au_sol_max": <fraction entre 0 et 1 ou null>,
  "recul_voirie": <nombre en mètres ou null>,
  "recul_limites": <nombre en mètres ou null>,
  "stationnement_logement": <places par logement ou null>,
  "stationnement_surface": <places par m² de bureaux ou null>,
  "espaces_verts_min": <fraction entre 0 et 1 ou null>,
  "usages_autorises": [<libellés courts>],
  "usages_interdits": [<libellés courts>],
  "usages_conditionnes": [<libellés courts>],
  "confiance": <ta confiance entre 0 et 1>
}

Règles :
- Un pourcentage doit être converti en fraction : 40%% devient 0.4.
- Mets null quand le texte ne donne pas la valeur. N'invente jamais de valeur.
- Les hauteurs et reculs sont en mètres.

Extrait du règlement :
---
%s
---`, zoneCode, zoneCode, excerpt)
}
