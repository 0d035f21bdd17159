// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package demo

// 1x1 transparent PNG
var pngPlaceholder = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

const loanApprovalXML = `<?xml version="1.0" encoding="UTF-8"?>
<definitions xmlns="http://www.omg.org/spec/BPMN/20100524/MODEL" targetNamespace="http://example.org/cycle">
  <process id="loanApproval" name="Loan Approval">
    <startEvent id="start"/>
    <sequenceFlow id="flow1" sourceRef="start" targetRef="checkCredit"/>
    <userTask id="checkCredit" name="Check credit"/>
    <sequenceFlow id="flow2" sourceRef="checkCredit" targetRef="decide"/>
    <exclusiveGateway id="decide" name="Approved?"/>
    <sequenceFlow id="flow3" sourceRef="decide" targetRef="end"/>
    <endEvent id="end"/>
  </process>
</definitions>
`

const invoiceCheckXML = `<?xml version="1.0" encoding="UTF-8"?>
<definitions xmlns="http://www.omg.org/spec/BPMN/20100524/MODEL" targetNamespace="http://example.org/cycle">
  <process id="invoiceCheck" name="Invoice Check">
    <startEvent id="start"/>
    <sequenceFlow id="flow1" sourceRef="start" targetRef="review"/>
    <userTask id="review" name="Review invoice"/>
    <sequenceFlow id="flow2" sourceRef="review" targetRef="end"/>
    <endEvent id="end"/>
  </process>
</definitions>
`
