package config

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/agentic-research/neutralizer/api"
)

// xmlDocument is the CAD add-on's layout:
//
//	<ExportConfiguration>
//	  <BaseExportPath>..\Exports</BaseExportPath>
//	  <ExportDirectiveList>
//	    <ExportDirective>
//	      <type>STEP214</type>
//	      <RelativeExportPath>STEP\{Number}_{Name}.stp</RelativeExportPath>
//	      <PurgeDirectoryBeforeExporting>STEP</PurgeDirectoryBeforeExporting>
//	      <EnableRootAssemblyExport>false</EnableRootAssemblyExport>
//	    </ExportDirective>
//	  </ExportDirectiveList>
//	</ExportConfiguration>
//
// The root element name is not checked.
type xmlDocument struct {
	BasePath       string         `xml:"BaseExportPath"`
	PreserveSpaces *string        `xml:"PreserveSpaces"`
	Directives     []xmlDirective `xml:"ExportDirectiveList>ExportDirective"`
	Converters     []xmlConverter `xml:"ConverterList>Converter"`
}

type xmlDirective struct {
	Type               string  `xml:"type"`
	RelativeExportPath string  `xml:"RelativeExportPath"`
	PurgeDirectory     string  `xml:"PurgeDirectoryBeforeExporting"`
	EnableRoot         *string `xml:"EnableRootAssemblyExport"`
	EnableSubassembly  *string `xml:"EnableSubassemblyExport"`
	EnablePart         *string `xml:"EnablePartExport"`
}

type xmlConverter struct {
	Format  string `xml:"format,attr"`
	Command string `xml:"Command"`
	Timeout string `xml:"Timeout"`
}

func decodeXML(data []byte) (*api.Config, error) {
	var x xmlDocument
	if err := xml.Unmarshal(data, &x); err != nil {
		return nil, fmt.Errorf("decode xml: %w", err)
	}
	doc := &api.Config{
		BasePath:       strings.TrimSpace(x.BasePath),
		PreserveSpaces: x.PreserveSpaces != nil && xmlBool(*x.PreserveSpaces),
	}
	for _, d := range x.Directives {
		doc.Directives = append(doc.Directives, api.Directive{
			Type:                     strings.TrimSpace(d.Type),
			RelativeExportPath:       strings.TrimSpace(d.RelativeExportPath),
			PurgeDirectory:           strings.TrimSpace(d.PurgeDirectory),
			EnableRootAssemblyExport: xmlFlag(d.EnableRoot),
			EnableSubassemblyExport:  xmlFlag(d.EnableSubassembly),
			EnablePartExport:         xmlFlag(d.EnablePart),
		})
	}
	for _, c := range x.Converters {
		doc.Converters = append(doc.Converters, api.Converter{
			Format:  strings.TrimSpace(c.Format),
			Command: strings.TrimSpace(c.Command),
			Timeout: strings.TrimSpace(c.Timeout),
		})
	}
	return doc, nil
}

// xmlFlag maps a missing or empty element to nil, which means enabled.
func xmlFlag(s *string) *bool {
	if s == nil || *s == "" {
		return nil
	}
	b := xmlBool(*s)
	return &b
}

// xmlBool accepts true, 1, yes and y in any case; everything else is false.
func xmlBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y":
		return true
	default:
		return false
	}
}
