// Package events defines the typed tray session event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - pipeline.*
//   - nlu.*
//   - tts.*
//   - tray.*
//   - setup.*
//
// Every event is a discrete notification. The session does not merge them
// into a single state value because the pipeline, the NLU engine and the TTS
// engine report independently of each other.
//
// pipeline events
//
//   - Initialized (pipeline.initialized): the speech pipeline finished
//     initializing.
//   - Started (pipeline.started): the pipeline is running and can be
//     activated.
//   - Stopped (pipeline.stopped): the pipeline was stopped.
//   - Activated (pipeline.activated): speech recognition is listening.
//   - Deactivated (pipeline.deactivated): speech recognition stopped
//     listening.
//   - Recognized (pipeline.recognized): a non-empty transcript was
//     recognized.
//   - TimedOut (pipeline.timed_out): the pipeline timed out in one of its
//     components.
//   - SpeechError (pipeline.error): the pipeline reported an error.
//
// nlu events
//
//   - Classified (nlu.classified): an utterance was classified and the host
//     intent handler produced a result.
//   - IntentUnhandled (nlu.unhandled): a classification was dropped because
//     no intent handler is configured or it returned no result.
//   - NLUError (nlu.error): classification failed.
//   - NLUTraced (nlu.traced): NLU diagnostic trace.
//
// tts events
//
//   - TTSSuccess (tts.success): speech was synthesized; carries the audio
//     location.
//   - BeganSpeaking (tts.began_speaking): playback started.
//   - FinishedSpeaking (tts.finished_speaking): playback finished.
//   - TTSError (tts.error): synthesis or playback failed.
//
// tray events
//
//   - ShouldOpenChanged (tray.should_open_changed): the session decided the
//     tray should be open or closed.
//   - Opened (tray.opened): the tray moved to the open state.
//   - Closed (tray.closed): the tray moved to the closed state.
//   - MessageAdded (tray.message_added): a message was appended to the
//     transcript.
//   - MuteChanged (tray.mute_changed): the session was muted or unmuted.
//
// setup events
//
//   - SetupCompleted (setup.completed): models are available, NLU is
//     initialized and the pipeline was asked to start.
//   - SetupFailed (setup.failed): permissions were denied or the model
//     download failed.
package events
