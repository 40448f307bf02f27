package http

import (
	"encoding/json"

	"github.com/vovakirdan/wireroom-server/internal/core"
	"github.com/vovakirdan/wireroom-server/internal/proto"
	"github.com/vovakirdan/wireroom-server/internal/store"
)

var (
	errInvalidMessage = &proto.Error{Code: "invalid_message", Msg: "unknown message type"}
	errMalformedData  = &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed data"}
)

func decode(raw json.RawMessage, v any) *proto.Error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errMalformedData
	}
	return nil
}

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundJoinRoom:
		var join proto.JoinRoomData
		if perr := decode(inbound.Data, &join); perr != nil {
			return nil, perr
		}
		if join.RoomID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "roomId is required"}
		}
		return &core.Command{
			Kind:     core.CommandJoinRoom,
			RoomCode: join.RoomID,
			UserID:   store.ParseUserID(join.UserID),
			UserName: join.UserName,
		}, nil
	case proto.InboundLeaveRoom:
		return &core.Command{Kind: core.CommandLeaveRoom}, nil

	case proto.InboundOffer:
		return signalCommand(core.CommandOffer, inbound.Data, func(s proto.SignalData) json.RawMessage { return s.Offer })
	case proto.InboundAnswer:
		return signalCommand(core.CommandAnswer, inbound.Data, func(s proto.SignalData) json.RawMessage { return s.Answer })
	case proto.InboundICECandidate:
		return signalCommand(core.CommandICECandidate, inbound.Data, func(s proto.SignalData) json.RawMessage { return s.Candidate })

	case proto.InboundSendMessage:
		var msg proto.MessageData
		if perr := decode(inbound.Data, &msg); perr != nil {
			return nil, perr
		}
		return &core.Command{Kind: core.CommandSendMessage, Text: msg.Text}, nil
	case proto.InboundUserSpeaking:
		return &core.Command{Kind: core.CommandUserSpeaking}, nil
	case proto.InboundUserStoppedSpeak:
		return &core.Command{Kind: core.CommandUserStoppedSpeaking}, nil
	case proto.InboundToggleAudio, proto.InboundToggleVideo:
		var toggle proto.ToggleData
		if perr := decode(inbound.Data, &toggle); perr != nil {
			return nil, perr
		}
		kind, flag := core.CommandToggleAudio, toggle.AudioEnabled
		if inbound.Type == proto.InboundToggleVideo {
			kind, flag = core.CommandToggleVideo, toggle.VideoEnabled
		}
		if flag == nil {
			flag = toggle.Enabled
		}
		if flag == nil {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "enabled is required"}
		}
		return &core.Command{Kind: kind, Enabled: *flag}, nil

	case proto.InboundRequestScreenShare:
		return &core.Command{Kind: core.CommandRequestScreenShare}, nil
	case proto.InboundScreenShareStarted:
		return &core.Command{Kind: core.CommandScreenShareStarted}, nil
	case proto.InboundScreenShareStopped:
		return &core.Command{Kind: core.CommandScreenShareStopped}, nil

	case proto.InboundPDFUploaded:
		var up proto.PDFUploadedData
		if perr := decode(inbound.Data, &up); perr != nil {
			return nil, perr
		}
		doc := up.DocumentData
		if up.PDFData != nil {
			doc = *up.PDFData
		}
		if doc.Filename == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "filename is required"}
		}
		return &core.Command{Kind: core.CommandDocumentUploaded, Document: core.DocumentInfo{
			ID:          doc.ID,
			Filename:    doc.Filename,
			TotalPages:  doc.TotalPages,
			Orientation: doc.Orientation,
		}}, nil
	case proto.InboundPDFPageChanged:
		var page proto.PageChangedData
		if perr := decode(inbound.Data, &page); perr != nil {
			return nil, perr
		}
		return &core.Command{Kind: core.CommandSetPage, Direction: page.Direction, TargetPage: page.CurrentPage}, nil
	case proto.InboundPDFUpdateMetadata:
		var meta proto.MetadataData
		if perr := decode(inbound.Data, &meta); perr != nil {
			return nil, perr
		}
		return &core.Command{Kind: core.CommandUpdateMetadata, TotalPages: meta.TotalPages, Orientation: meta.Orientation}, nil
	case proto.InboundPDFTogglePresent:
		var pres proto.PresentationData
		if perr := decode(inbound.Data, &pres); perr != nil {
			return nil, perr
		}
		return &core.Command{Kind: core.CommandTogglePresentation, IsPresenting: pres.IsPresenting}, nil
	case proto.InboundPDFGrantPresenter, proto.InboundPDFRevokePresenter:
		var target proto.PresenterData
		if perr := decode(inbound.Data, &target); perr != nil {
			return nil, perr
		}
		kind := core.CommandGrantPresenter
		if inbound.Type == proto.InboundPDFRevokePresenter {
			kind = core.CommandRevokePresenter
		}
		return &core.Command{Kind: kind, TargetUserID: store.ParseUserID(target.TargetUserID)}, nil
	case proto.InboundPDFRemove:
		return &core.Command{Kind: core.CommandRemoveDocument}, nil

	case proto.InboundWhiteboardDraw:
		var draw proto.DrawData
		if perr := decode(inbound.Data, &draw); perr != nil {
			return nil, perr
		}
		return &core.Command{Kind: core.CommandDraw, Page: draw.Page, Stroke: store.Stroke{
			Points: draw.Line.Points,
			Color:  draw.Line.Color,
			Width:  draw.Line.Width,
			Tool:   draw.Line.Tool,
		}}, nil
	case proto.InboundWhiteboardClear:
		var cl proto.ClearData
		if perr := decode(inbound.Data, &cl); perr != nil {
			return nil, perr
		}
		return &core.Command{Kind: core.CommandClearPage, Page: cl.Page}, nil
	}

	if kind, ok := groupCommands[inbound.Type]; ok {
		var g proto.GroupData
		if perr := decode(inbound.Data, &g); perr != nil {
			return nil, perr
		}
		return &core.Command{
			Kind:         kind,
			GroupID:      g.GroupID,
			GroupName:    g.GroupName,
			TargetUserID: store.ParseUserID(g.UserID),
			Permissions: store.Permissions{
				CanDraw:     g.Permissions.CanDraw,
				CanNavigate: g.Permissions.CanNavigate,
			},
		}, nil
	}
	return nil, errInvalidMessage
}

var groupCommands = map[string]core.CommandKind{
	proto.InboundCreateGroup:        core.CommandCreateGroup,
	proto.InboundDeleteGroup:        core.CommandDeleteGroup,
	proto.InboundRequestJoinGroup:   core.CommandRequestJoinGroup,
	proto.InboundApproveJoinRequest: core.CommandApproveJoinRequest,
	proto.InboundRejectJoinRequest:  core.CommandRejectJoinRequest,
	proto.InboundAddGroupMember:     core.CommandAddGroupMember,
	proto.InboundRemoveGroupMember:  core.CommandRemoveGroupMember,
	proto.InboundLinkPDFGroup:       core.CommandLinkDocumentGroup,
}

func signalCommand(kind core.CommandKind, raw json.RawMessage, named func(proto.SignalData) json.RawMessage) (*core.Command, *proto.Error) {
	var sig proto.SignalData
	if perr := decode(raw, &sig); perr != nil {
		return nil, perr
	}
	if sig.To == "" {
		return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "to is required"}
	}
	payload := sig.Payload
	if len(payload) == 0 {
		payload = named(sig)
	}
	return &core.Command{Kind: kind, To: sig.To, Payload: payload}, nil
}

var eventNames = map[core.EventKind]string{
	core.EventPermissionError:      proto.EventErrorPermission,
	core.EventRoomParticipants:     proto.EventRoomParticipants,
	core.EventUserJoined:           proto.EventUserJoined,
	core.EventUserLeft:             proto.EventUserLeft,
	core.EventOffer:                proto.EventOffer,
	core.EventAnswer:               proto.EventAnswer,
	core.EventICECandidate:         proto.EventICECandidate,
	core.EventReceiveMessage:       proto.EventReceiveMessage,
	core.EventUserSpeaking:         proto.EventUserSpeaking,
	core.EventUserStoppedSpeaking:  proto.EventUserStoppedSpeaking,
	core.EventUserAudioToggled:     proto.EventUserAudioToggled,
	core.EventUserVideoToggled:     proto.EventUserVideoToggled,
	core.EventScreenShareRequested: proto.EventScreenShareRequested,
	core.EventScreenShareActive:    proto.EventScreenShareActive,
	core.EventScreenShareEnded:     proto.EventScreenShareEnded,
	core.EventDocumentState:        proto.EventPDFState,
	core.EventDocumentPageUpdate:   proto.EventPDFPageUpdate,
	core.EventDocumentPresenters:   proto.EventPDFPresentersUpdate,
	core.EventDocumentRemoved:      proto.EventPDFRemoved,
	core.EventWhiteboardDraw:       proto.EventWhiteboardDraw,
	core.EventWhiteboardClear:      proto.EventWhiteboardClear,
	core.EventGroupsUpdate:         proto.EventGroupsUpdate,
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	if event.Kind == core.EventError {
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Room:  event.Room,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	}

	name, ok := eventNames[event.Kind]
	if !ok {
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
	return proto.Outbound{
		Type:  proto.OutboundTypeEvent,
		Event: name,
		Room:  event.Room,
		Data:  event.Data,
	}
}
