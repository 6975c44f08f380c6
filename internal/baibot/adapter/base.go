package adapter

// ConfigGetters implements the Controller configuration getters on top of a
// parsed Config. Adapter families embed it so the getter behavior stays
// identical across dialects.
type ConfigGetters struct {
	Cfg *Config
}

func (g ConfigGetters) TextGenerationModelID() (string, bool) {
	if g.Cfg.TextGeneration == nil || g.Cfg.TextGeneration.ModelID == "" {
		return "", false
	}
	return g.Cfg.TextGeneration.ModelID, true
}

func (g ConfigGetters) TextGenerationPrompt() (string, bool) {
	if g.Cfg.TextGeneration == nil || g.Cfg.TextGeneration.Prompt == "" {
		return "", false
	}
	return g.Cfg.TextGeneration.Prompt, true
}

func (g ConfigGetters) TextGenerationTemperature() (float64, bool) {
	if g.Cfg.TextGeneration == nil || g.Cfg.TextGeneration.Temperature == nil {
		return 0, false
	}
	return *g.Cfg.TextGeneration.Temperature, true
}

func (g ConfigGetters) TextToSpeechVoice() (string, bool) {
	if g.Cfg.TextToSpeech == nil || g.Cfg.TextToSpeech.Voice == "" {
		return "", false
	}
	return g.Cfg.TextToSpeech.Voice, true
}

func (g ConfigGetters) TextToSpeechSpeed() (float64, bool) {
	if g.Cfg.TextToSpeech == nil || g.Cfg.TextToSpeech.Speed == nil {
		return 0, false
	}
	return *g.Cfg.TextToSpeech.Speed, true
}
