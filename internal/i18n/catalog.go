package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// German translations of the CLI messages. Message keys are the English
// format strings.
var german = map[string]string{
	"no context found at %s\n":            "kein Kontext unter %s gefunden\n",
	"context at %s is not supported: %v\n": "Kontext unter %s wird nicht unterstützt: %v\n",
	"instance %s (first boot)\n":           "Instanz %s (erster Start)\n",
	"instance %s (seen before)\n":          "Instanz %s (bereits bekannt)\n",
	"hostname: %s\n":                       "Hostname: %s\n",
	"%d addresses, %d public keys\n":       "%d Adressen, %d öffentliche Schlüssel\n",
	"no interface units in context\n":      "keine Schnittstellen im Kontext\n",
	"no boots recorded\n":                  "keine Starts aufgezeichnet\n",
	"context changed:\n":                   "Kontext geändert:\n",
	"context removed\n":                    "Kontext entfernt\n",
	"reload failed: %v\n":                  "Neuladen fehlgeschlagen: %v\n",
}

func init() {
	for key, msg := range german {
		_ = message.SetString(language.German, key, msg)
	}
}
