package locale

import (
	"io/fs"
	"strings"

	"puntibot/logger"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

var (
	i18nBundle   *i18n.Bundle
	LocalizerWeb *i18n.Localizer
	LocalizerBot *i18n.Localizer
)

type I18nType string

const (
	Bot I18nType = "bot"
	Web I18nType = "web"
)

// InitLocalizer loads every translation/*.toml file from the given FS and
// builds the localizers for the requested language, falling back to Italian.
func InitLocalizer(i18nFS fs.FS, lang string) error {
	i18nBundle = i18n.NewBundle(language.Italian)
	i18nBundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	if err := parseTranslationFiles(i18nFS, i18nBundle); err != nil {
		return err
	}

	LocalizerBot = i18n.NewLocalizer(i18nBundle, lang)
	LocalizerWeb = i18n.NewLocalizer(i18nBundle, lang)
	return nil
}

func createTemplateData(params []string) map[string]any {
	templateData := make(map[string]any)
	for _, param := range params {
		parts := strings.SplitN(param, "==", 2)
		if len(parts) != 2 {
			continue
		}
		templateData[parts[0]] = parts[1]
	}
	return templateData
}

func I18n(i18nType I18nType, key string, params ...string) string {
	var localizer *i18n.Localizer

	switch i18nType {
	case Bot:
		localizer = LocalizerBot
	case Web:
		localizer = LocalizerWeb
	default:
		logger.Errorf("Invalid type of localizer: %s", i18nType)
		return ""
	}

	if localizer == nil {
		logger.Error("Localizer is not initialized")
		return ""
	}

	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: createTemplateData(params),
	})
	if err != nil {
		logger.Errorf("Failed to localize message %s: %v", key, err)
		return ""
	}

	return msg
}

func parseTranslationFiles(i18nFS fs.FS, i18nBundle *i18n.Bundle) error {
	files, err := fs.Glob(i18nFS, "translation/*.toml")
	if err != nil {
		return err
	}
	for _, file := range files {
		if _, err := i18nBundle.LoadMessageFileFS(i18nFS, file); err != nil {
			return err
		}
	}
	return nil
}
