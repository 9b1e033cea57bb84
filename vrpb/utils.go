package vrpb

import (
	"bytes"
	"fmt"
)

func sprintfEntry(e Entry) string {
	return fmt.Sprintf("[view=%d | op=%d | client=%d | request=%d | prediction=%v]",
		e.View, e.OpNumber, e.ClientID, e.RequestNumber, e.HasPrediction)
}

func sprintfMessage(msg Message) string {
	buf := new(bytes.Buffer)
	fmt.Fprintf(buf, "Message[type=%s | view=%d | from=%d -> to=%d | op=%d | commit=%d]",
		msg.Type, msg.View, msg.From, msg.To, msg.OpNumber, msg.CommitNumber)

	if len(msg.LogTail) > 0 {
		fmt.Fprintf(buf, " tail=%d..%d", msg.LogTail[0].OpNumber, msg.LogTail[len(msg.LogTail)-1].OpNumber)
	}
	if !msg.CheckpointRef.IsEmpty() {
		fmt.Fprintf(buf, " checkpointRef=%d", msg.CheckpointRef.OpNumber)
	}
	return buf.String()
}

// ClientID and RequestNumber together identify a client operation; Key
// packs them into a single comparable value usable as a map key where a
// struct key would otherwise be fine too — kept for call sites that want a
// primitive.
func Key(clientID, requestNumber uint64) [2]uint64 {
	return [2]uint64{clientID, requestNumber}
}
