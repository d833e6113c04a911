package api

import (
	"encoding/xml"
	"fmt"
)

// TwiML markup returned for the call-start webhook: greet, then record
// and post the recording status callback to the public base URL.

type twimlResponse struct {
	XMLName xml.Name    `xml:"Response"`
	Say     twimlSay    `xml:"Say"`
	Record  twimlRecord `xml:"Record"`
}

type twimlSay struct {
	Voice string `xml:"voice,attr"`
	Text  string `xml:",chardata"`
}

type twimlRecord struct {
	MaxLength               int    `xml:"maxLength,attr"`
	PlayBeep                bool   `xml:"playBeep,attr"`
	RecordingStatusCallback string `xml:"recordingStatusCallback,attr"`
}

// renderTwiML builds the phase-1 response document.
func renderTwiML(greeting string, maxRecordingSecs int, callbackURL string) ([]byte, error) {
	doc := twimlResponse{
		Say: twimlSay{
			Voice: "alice",
			Text:  greeting,
		},
		Record: twimlRecord{
			MaxLength:               maxRecordingSecs,
			PlayBeep:                true,
			RecordingStatusCallback: callbackURL,
		},
	}

	body, err := xml.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal TwiML: %w", err)
	}

	return append([]byte(xml.Header), body...), nil
}
