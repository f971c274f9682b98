// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package contingency describes the degraded-operation mode declared by the issuer.

When the authorizer of a jurisdiction is unreachable the issuer declares a
contingency mode. The mode decides which endpoints may be used, how the
document must be marked (tpEmis, dhCont, xJust) and which digit is carried in
position 35 of the access key.

# Modes

	Type     tpEmis  Traffic
	None     1       jurisdiction authorizer
	EPEC     4       only RecepcaoEPEC at the national environment
	FSDA     5       none, document printed on security form
	SVCAN    6       SVC-AN virtual contingency authorizer
	SVCRS    7       SVC-RS virtual contingency authorizer
	OFFLINE  9       none, NFC-e issued offline

# Shared State

One declared mode applies to every transmission of the process. Callers that
need that behaviour share a single [Manager]; callers that prefer explicit
values pass a [State] to each transmission.

	mgr := contingency.NewManager(logger)
	state, err := mgr.Activate(contingency.SVCAN, "SEFAZ-SP unreachable", time.Now())
	defer mgr.Clear()
*/
package contingency
