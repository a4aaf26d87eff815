package protocol

// This package implements parsing and serialising of the API frames that
// mesh radio modules speak over their serial port when running in API mode.
//
// - `Frame` - One unit on the wire. Either a command we send, a response to
//             one of our commands, or an unsolicited notification.
// - `Request` - A command frame sent by meshlink to the device.
// - `Response` - A frame sent by the device that answers a request.
// - `ModemStatus`, `RxPacket64`, `RxPacket16` - Frames the device sends on
//             its own, with no request to answer.
//
// === General Syntax
//
//   ```
//     0x7E <length:2> <frame data:length> <checksum>
//   ```
//
// - the length is big endian and only counts the frame data
// - the first byte of the frame data is the frame type
// - the checksum is 0xFF minus the low byte of the sum of the frame data
//
// === Frame ids
//
// As the device answers whenever it is ready, responses to different
// requests can arrive in any order, interleaved with notifications. Requests
// that expect a response carry a one byte frame id which the device copies
// into its response.
//
//   ```
//     > 0x7E 0x00 0x04 0x08 <id> 'H' 'V' <checksum>
//     < 0x7E 0x00 0x07 0x88 <id> 'H' 'V' 0x00 0x19 0x44 <checksum>
//   ```
//
// A frame id of zero tells the device not to respond at all. Notifications
// never carry a frame id.
//
// === Escaping
//
// In API mode 2 the bytes 0x7E, 0x7D, 0x11 and 0x13 are escaped wherever
// they appear after the start delimiter: they are replaced by 0x7D followed
// by the byte XOR 0x20. The checksum is calculated over the unescaped data.
//
// === Transmitting
//
// There are two transmit request shapes. Legacy 802.15.4 modules use the
// 64-bit TX request (0x00) answered by a TX status (0x89). Everything else
// uses the transmit request (0x10) answered by a transmit status (0x8B).
// Both report delivery success as status 0x00.
//
// === Receiving
//
// Data from other nodes arrives as RX packets, 0x80 when the sender is
// addressed by its 64-bit address and 0x81 when addressed by its 16-bit
// network address.
//
