package deepgram

import "slices"

type Voice string

const (
	VoiceAsteria Voice = "aura-asteria-en"
	VoiceLuna    Voice = "aura-luna-en"
	VoiceStella  Voice = "aura-stella-en"
	VoiceAthena  Voice = "aura-athena-en"
	VoiceHera    Voice = "aura-hera-en"
	VoiceOrion   Voice = "aura-orion-en"
	VoiceArcas   Voice = "aura-arcas-en"
	VoicePerseus Voice = "aura-perseus-en"
	VoiceAngus   Voice = "aura-angus-en"
	VoiceOrpheus Voice = "aura-orpheus-en"
	VoiceHelios  Voice = "aura-helios-en"
	VoiceZeus    Voice = "aura-zeus-en"

	defaultVoice = VoiceAsteria
)

func AvailableVoices() []Voice {
	return []Voice{
		VoiceAsteria, VoiceLuna, VoiceStella, VoiceAthena, VoiceHera, VoiceOrion,
		VoiceArcas, VoicePerseus, VoiceAngus, VoiceOrpheus, VoiceHelios, VoiceZeus,
	}
}

// resolveVoice falls back to the default voice for an empty name.
func resolveVoice(name string) (Voice, bool) {
	if name == "" {
		return defaultVoice, true
	}
	voice := Voice(name)
	return voice, slices.Contains(AvailableVoices(), voice)
}
