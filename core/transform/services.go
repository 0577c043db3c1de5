package transform

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/diagkit/mddc/core/document"
	"github.com/diagkit/mddc/core/ir"
)

// subfunctionEntry pairs a display name with its subfunction byte. The
// generators take ordered slices rather than maps so output is stable.
type subfunctionEntry struct {
	Name  string
	Value uint8
}

func subfn(v uint8) *uint8 { return &v }

// capitalize upper-cases the first rune and lower-cases the rest, so a
// session key like "default" names a "Default_Start" service.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(strings.ToLower(s))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// readDIDService generates the ReadDataByIdentifier (0x22) service for one
// DID: request [SID DID_HI DID_LO], response [0x62 DID_HI DID_LO DATA...].
func readDIDService(did uint16, name, dopRef string, sessions, security []string) *ir.DiagService {
	serviceName := name + "_Read"
	hi, lo := byte(did>>8), byte(did)

	request := &ir.Message{
		ShortName: "RQ_" + serviceName,
		Params: []ir.Param{
			codedConst("SID_RQ", 0x22, 0, 8, semanticServiceID),
			codedConst("DID_RQ", int64(did), 1, 16, semanticDID),
		},
		ConstantPrefix: []byte{0x22, hi, lo},
	}

	response := &ir.Message{
		ShortName: "PR_" + serviceName,
		Params: []ir.Param{
			codedConst("SID_PR", 0x62, 0, 8, semanticServiceID),
			matchingRequest("DID_PR", 1, 1, 2, semanticDID),
			valueParam(name, 3, dopRef, semanticData),
		},
		ConstantPrefix: []byte{0x62, hi, lo},
	}

	return &ir.DiagService{
		ShortName:        serviceName,
		LongName:         "Read " + name,
		ServiceID:        0x22,
		ResponseType:     ir.PosResponse,
		Request:          request,
		PositiveResponse: response,
		RequiredSessions: sessions,
		RequiredSecurity: security,
	}
}

// writeDIDService generates the WriteDataByIdentifier (0x2E) service for
// one DID: request carries the data, response echoes the DID.
func writeDIDService(did uint16, name, dopRef string, sessions, security []string) *ir.DiagService {
	serviceName := name + "_Write"
	hi, lo := byte(did>>8), byte(did)

	request := &ir.Message{
		ShortName: "RQ_" + serviceName,
		Params: []ir.Param{
			codedConst("SID_RQ", 0x2E, 0, 8, semanticServiceID),
			codedConst("DID_RQ", int64(did), 1, 16, semanticDID),
			valueParam(name, 3, dopRef, semanticData),
		},
		ConstantPrefix: []byte{0x2E, hi, lo},
	}

	response := &ir.Message{
		ShortName: "PR_" + serviceName,
		Params: []ir.Param{
			codedConst("SID_PR", 0x6E, 0, 8, semanticServiceID),
			matchingRequest("DID_PR", 1, 1, 2, semanticDID),
		},
		ConstantPrefix: []byte{0x6E, hi, lo},
	}

	return &ir.DiagService{
		ShortName:        serviceName,
		LongName:         "Write " + name,
		ServiceID:        0x2E,
		ResponseType:     ir.PosResponse,
		Request:          request,
		PositiveResponse: response,
		RequiredSessions: sessions,
		RequiredSecurity: security,
	}
}

// sessionControlServices generates one DiagnosticSessionControl (0x10)
// service per session, named {Session}_Start.
func sessionControlServices(sessions []subfunctionEntry) []*ir.DiagService {
	services := make([]*ir.DiagService, 0, len(sessions))
	for _, s := range sessions {
		display := capitalize(s.Name)
		serviceName := display + "_Start"
		id := s.Value

		request := &ir.Message{
			ShortName: "RQ_" + serviceName,
			Params: []ir.Param{
				codedConst("SID_RQ", 0x10, 0, 8, semanticServiceID),
				codedConst("SF_RQ", int64(id), 1, 8, semanticSubfunction),
			},
			ConstantPrefix: []byte{0x10, id},
		}

		response := &ir.Message{
			ShortName: "PR_" + serviceName,
			Params: []ir.Param{
				codedConst("SID_PR", 0x50, 0, 8, semanticServiceID),
				matchingRequest("SF_PR", 1, 1, 1, semanticSubfunction),
			},
			ConstantPrefix: []byte{0x50, id},
		}

		services = append(services, &ir.DiagService{
			ShortName:        serviceName,
			LongName:         fmt.Sprintf("Start %s Session", display),
			ServiceID:        0x10,
			Subfunction:      subfn(id),
			ResponseType:     ir.PosResponseWithSubfunction,
			Request:          request,
			PositiveResponse: response,
		})
	}
	return services
}

// securityAccessServices generates the SecurityAccess (0x27) service pair
// per level: RequestSeed_Level_{n} on the odd subfunction and
// SendKey_Level_{n} on the even one. The key service carries a negative
// response for failed authentication.
func securityAccessServices(levels []uint8, variantRef string) []*ir.DiagService {
	services := make([]*ir.DiagService, 0, 2*len(levels))
	for _, level := range levels {
		seedName := fmt.Sprintf("RequestSeed_Level_%d", level)
		seedSF := level

		seedRequest := &ir.Message{
			ShortName: "RQ_" + seedName,
			Params: []ir.Param{
				codedConst("SID_RQ", 0x27, 0, 8, semanticServiceID),
				codedConst("SF_RQ", int64(seedSF), 1, 8, semanticSubfunction),
			},
			ConstantPrefix: []byte{0x27, seedSF},
		}

		seedResponse := &ir.Message{
			ShortName: "PR_" + seedName,
			Params: []ir.Param{
				codedConst("SID_PR", 0x67, 0, 8, semanticServiceID),
				matchingRequest("SF_PR", 1, 1, 1, semanticSubfunction),
			},
			ConstantPrefix: []byte{0x67, seedSF},
		}

		services = append(services, &ir.DiagService{
			ShortName:        seedName,
			LongName:         fmt.Sprintf("Request Seed for Security Level %d", level),
			ServiceID:        0x27,
			Subfunction:      subfn(seedSF),
			ResponseType:     ir.PosResponseWithSubfunction,
			Request:          seedRequest,
			PositiveResponse: seedResponse,
			VariantRef:       variantRef,
		})

		keyName := fmt.Sprintf("SendKey_Level_%d", level)
		keySF := level + 1

		keyRequest := &ir.Message{
			ShortName: "RQ_" + keyName,
			Params: []ir.Param{
				codedConst("SID_RQ", 0x27, 0, 8, semanticServiceID),
				codedConst("SF_RQ", int64(keySF), 1, 8, semanticSubfunction),
				valueParam("SecurityKey", 2, "DOP_EndOfPDU_ByteArray", semanticData),
			},
			ConstantPrefix: []byte{0x27, keySF},
		}

		keyResponse := &ir.Message{
			ShortName: "PR_" + keyName,
			Params: []ir.Param{
				codedConst("SID_PR", 0x67, 0, 8, semanticServiceID),
				matchingRequest("SF_PR", 1, 1, 1, semanticSubfunction),
			},
			ConstantPrefix: []byte{0x67, keySF},
		}

		keyNegative := &ir.Message{
			ShortName: "NR_" + keyName,
			Params: []ir.Param{
				codedConst("SID_NR", 0x7F, 0, 8, semanticServiceID),
				matchingRequest("SIDRQ_NR", 1, 0, 1, semanticServiceIDRQ),
				valueParam("NRC", 2, "DOP_UINT8", semanticData),
			},
			ConstantPrefix: []byte{0x7F, 0x27},
		}

		services = append(services, &ir.DiagService{
			ShortName:        keyName,
			LongName:         fmt.Sprintf("Send Key for Security Level %d", level),
			ServiceID:        0x27,
			Subfunction:      subfn(keySF),
			ResponseType:     ir.PosResponseWithSubfunction,
			Request:          keyRequest,
			PositiveResponse: keyResponse,
			NegativeResponse: keyNegative,
			VariantRef:       variantRef,
		})
	}
	return services
}

// ecuResetServices generates one ECUReset (0x11) service per reset type.
func ecuResetServices(resetTypes []subfunctionEntry) []*ir.DiagService {
	services := make([]*ir.DiagService, 0, len(resetTypes))
	for _, rt := range resetTypes {
		sf := rt.Value

		request := &ir.Message{
			ShortName: "RQ_" + rt.Name,
			Params: []ir.Param{
				codedConst("SID_RQ", 0x11, 0, 8, semanticServiceID),
				codedConst("SF_RQ", int64(sf), 1, 8, semanticSubfunction),
			},
			ConstantPrefix: []byte{0x11, sf},
		}

		response := &ir.Message{
			ShortName: "PR_" + rt.Name,
			Params: []ir.Param{
				codedConst("SID_PR", 0x51, 0, 8, semanticServiceID),
				matchingRequest("SF_PR", 1, 1, 1, semanticSubfunction),
			},
			ConstantPrefix: []byte{0x51, sf},
		}

		services = append(services, &ir.DiagService{
			ShortName:        rt.Name,
			LongName:         "ECU " + rt.Name,
			ServiceID:        0x11,
			Subfunction:      subfn(sf),
			ResponseType:     ir.PosResponseWithSubfunction,
			Request:          request,
			PositiveResponse: response,
		})
	}
	return services
}

// authenticationServices generates one Authentication (0x29) service per
// subfunction, named Authentication_{Name}. The Configuration response
// carries an AuthenticationReturnParameter.
func authenticationServices(subfunctions []subfunctionEntry) []*ir.DiagService {
	services := make([]*ir.DiagService, 0, len(subfunctions))
	for _, entry := range subfunctions {
		serviceName := "Authentication_" + entry.Name
		sf := entry.Value

		request := &ir.Message{
			ShortName: "RQ_" + serviceName,
			Params: []ir.Param{
				codedConst("SID_RQ", 0x29, 0, 8, semanticServiceID),
				codedConst("SF_RQ", int64(sf), 1, 8, semanticSubfunction),
			},
			ConstantPrefix: []byte{0x29, sf},
		}

		responseParams := []ir.Param{
			codedConst("SID_PR", 0x69, 0, 8, semanticServiceID),
			matchingRequest("SF_PR", 1, 1, 1, semanticSubfunction),
		}
		if entry.Name == "Configuration" {
			responseParams = append(responseParams,
				valueParam("AuthenticationReturnParameter", 2, "DOP_AuthReturnParam", semanticData))
		}

		response := &ir.Message{
			ShortName:      "PR_" + serviceName,
			Params:         responseParams,
			ConstantPrefix: []byte{0x69, sf},
		}

		services = append(services, &ir.DiagService{
			ShortName:        serviceName,
			LongName:         "Authentication " + entry.Name,
			ServiceID:        0x29,
			Subfunction:      subfn(sf),
			ResponseType:     ir.PosResponseWithSubfunction,
			Request:          request,
			PositiveResponse: response,
		})
	}
	return services
}

// communicationControlServices generates one CommunicationControl (0x28)
// service per control type, named {Name}_Control. The communication type
// byte is fixed to normal communication; TemporalSync additionally carries
// a temporal era id.
func communicationControlServices(controlTypes []subfunctionEntry) []*ir.DiagService {
	services := make([]*ir.DiagService, 0, len(controlTypes))
	for _, ct := range controlTypes {
		serviceName := ct.Name + "_Control"
		sf := ct.Value

		requestParams := []ir.Param{
			codedConst("SID_RQ", 0x28, 0, 8, semanticServiceID),
			codedConst("SF_RQ", int64(sf), 1, 8, semanticSubfunction),
			codedConst("CommunicationType", 1, 2, 8, semanticData),
		}
		if ct.Name == "TemporalSync" {
			requestParams = append(requestParams,
				valueParam("temporalEraId", 3, "DOP_INT32", semanticData))
		}

		request := &ir.Message{
			ShortName:      "RQ_" + serviceName,
			Params:         requestParams,
			ConstantPrefix: []byte{0x28, sf, 0x01},
		}

		response := &ir.Message{
			ShortName: "PR_" + serviceName,
			Params: []ir.Param{
				codedConst("SID_PR", 0x68, 0, 8, semanticServiceID),
				matchingRequest("SF_PR", 1, 1, 1, semanticSubfunction),
			},
			ConstantPrefix: []byte{0x68, sf},
		}

		services = append(services, &ir.DiagService{
			ShortName:        serviceName,
			LongName:         "Communication Control - " + ct.Name,
			ServiceID:        0x28,
			Subfunction:      subfn(sf),
			ResponseType:     ir.PosResponseWithSubfunction,
			Request:          request,
			PositiveResponse: response,
		})
	}
	return services
}

// transferServices generates the download/upload transfer trio:
// RequestDownload (0x34), TransferData (0x36), and TransferExit (0x37).
func transferServices() []*ir.DiagService {
	downloadRequest := &ir.Message{
		ShortName: "RQ_RequestDownload",
		Params: []ir.Param{
			codedConst("SID_RQ", 0x34, 0, 8, semanticServiceID),
			valueParam("DataFormatIdentifier", 1, "DOP_UINT8", semanticData),
			valueParam("AddressAndLengthFormatIdentifier", 2, "DOP_UINT8", semanticData),
			valueParam("MemoryAddress", 3, "DOP_ByteArray", semanticData),
			valueParam("MemorySize", 7, "DOP_ByteArray", semanticData),
		},
		ConstantPrefix: []byte{0x34},
	}

	downloadResponse := &ir.Message{
		ShortName: "PR_RequestDownload",
		Params: []ir.Param{
			codedConst("SID_PR", 0x74, 0, 8, semanticServiceID),
			valueParam("LengthFormatIdentifier", 1, "DOP_UINT8", semanticData),
			valueParam("MaxNumberOfBlockLength", 2, "DOP_UINT32", semanticData),
		},
		ConstantPrefix: []byte{0x74},
	}

	transferRequest := &ir.Message{
		ShortName: "RQ_TransferData",
		Params: []ir.Param{
			codedConst("SID_RQ", 0x36, 0, 8, semanticServiceID),
			valueParam("BlockSequenceCounter", 1, "DOP_UINT8", semanticData),
			valueParam("TransferRequestParameterRecord", 2, "DOP_EndOfPDU_ByteArray", semanticData),
		},
		ConstantPrefix: []byte{0x36},
	}

	transferResponse := &ir.Message{
		ShortName: "PR_TransferData",
		Params: []ir.Param{
			codedConst("SID_PR", 0x76, 0, 8, semanticServiceID),
			matchingRequest("BlockSequenceCounter_PR", 1, 1, 1, semanticData),
			valueParam("TransferRequestParameterRecord", 2, "DOP_EndOfPDU_ByteArray", semanticData),
		},
		ConstantPrefix: []byte{0x76},
	}

	exitRequest := &ir.Message{
		ShortName: "RQ_TransferExit",
		Params: []ir.Param{
			codedConst("SID_RQ", 0x37, 0, 8, semanticServiceID),
		},
		ConstantPrefix: []byte{0x37},
	}

	exitResponse := &ir.Message{
		ShortName: "PR_TransferExit",
		Params: []ir.Param{
			codedConst("SID_PR", 0x77, 0, 8, semanticServiceID),
		},
		ConstantPrefix: []byte{0x77},
	}

	return []*ir.DiagService{
		{
			ShortName:        "RequestDownload",
			LongName:         "Request Download",
			ServiceID:        0x34,
			ResponseType:     ir.PosResponse,
			Request:          downloadRequest,
			PositiveResponse: downloadResponse,
		},
		{
			ShortName:        "TransferData",
			LongName:         "Transfer Data",
			ServiceID:        0x36,
			ResponseType:     ir.PosResponse,
			Request:          transferRequest,
			PositiveResponse: transferResponse,
		},
		{
			ShortName:        "TransferExit",
			LongName:         "Request Transfer Exit",
			ServiceID:        0x37,
			ResponseType:     ir.PosResponse,
			Request:          exitRequest,
			PositiveResponse: exitResponse,
		},
	}
}

// routineServices generates one RoutineControl (0x31) service per declared
// operation of the routine.
func routineServices(id uint16, def *document.RoutineDefinition, sessions, security []string) []*ir.DiagService {
	var services []*ir.DiagService
	if def.HasOperation(document.RoutineStart) {
		services = append(services, routineService(id, def.Name, 0x01, "Start", "Start Routine: ", sessions, security))
	}
	if def.HasOperation(document.RoutineStop) {
		services = append(services, routineService(id, def.Name, 0x02, "Stop", "Stop Routine: ", sessions, security))
	}
	if def.HasOperation(document.RoutineResult) {
		services = append(services, routineService(id, def.Name, 0x03, "Result", "Request Routine Results: ", sessions, security))
	}
	return services
}

func routineService(id uint16, name string, sf uint8, prefix, longPrefix string, sessions, security []string) *ir.DiagService {
	serviceName := prefix + "_" + name
	hi, lo := byte(id>>8), byte(id)

	request := &ir.Message{
		ShortName: serviceName + "_Request",
		Params: []ir.Param{
			codedConst("SID_RQ", 0x31, 0, 8, semanticServiceID),
			codedConst("SF_RQ", int64(sf), 1, 8, semanticSubfunction),
			codedConst("RID_RQ", int64(id), 2, 16, semanticData),
		},
		ConstantPrefix: []byte{0x31, sf, hi, lo},
	}

	response := &ir.Message{
		ShortName: serviceName + "_Response",
		Params: []ir.Param{
			codedConst("SID_PR", 0x71, 0, 8, semanticServiceID),
			matchingRequest("SF_PR", 1, 1, 1, semanticSubfunction),
			matchingRequest("RID_PR", 2, 2, 2, semanticData),
		},
		ConstantPrefix: []byte{0x71, sf, hi, lo},
	}

	return &ir.DiagService{
		ShortName:        serviceName,
		LongName:         longPrefix + name,
		ServiceID:        0x31,
		Subfunction:      subfn(sf),
		ResponseType:     ir.PosResponseWithSubfunction,
		Request:          request,
		PositiveResponse: response,
		RequiredSessions: sessions,
		RequiredSecurity: security,
	}
}
