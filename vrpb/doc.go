// Package vrpb defines the wire types shared by replicas running the
// Viewstamped Replication protocol: log entries, checkpoints, client-table
// entries, and the Message envelope carrying every protocol exchange listed
// in the wire schema (Request, Reply, Prepare, PrepareOk, Commit,
// StartViewChange, DoViewChange, StartView, GetState, NewState, Recovery,
// RecoveryResponse).
//
// Types here are plain, comment-annotated Go structs rather than
// code-generated message types. (Message).Marshal/Unmarshal encode with
// encoding/gob, and MessageBinaryEncoder/MessageBinaryDecoder frame a
// Message on a stream with a length prefix so a transport has something
// concrete to send without the vr package itself depending on any
// particular wire format.
package vrpb
