// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package dh

// rfc5114P, rfc5114G, rfc5114Q are the fixed parameters of RFC 5114 section
// 2.3, "2048-bit MODP Group with 256-bit Prime Order Subgroup". Every
// connection uses this single well-known group; only the ephemeral
// exponents are generated per connection.
const (
	rfc5114P = "" +
		"AD107E1E9123A9D0D660FAA79559C51FA20D64E5683B9FD1B54B1597B61D0A7" +
		"5E6FA141DF95A56DBAF9A3C407BA1DF15EB3D688A309C180E1DE6B85A1274A0" +
		"A66D3F8152AD6AC2129037C9EDEFDA4DF8D91E8FEF55B7394B7AD5B7D0B6C12" +
		"207C9F98D11ED34DBF6C6BA0B2C8BBC27BE6A00E0A0B9C49708B3BF8A317091" +
		"883681286130BC8985DB1602E714415D9330278273C7DE31EFDC7310F7121F" +
		"D5A07415987D9ADC0A486DCDF93ACC44328387315D75E198C641A480CD86A1B" +
		"9E587E8BE60E69CC928B2B9C52172E413042E9B23F10B0E16E79763C9B53DCF" +
		"4BA80A29E3FB73C16B8E75B97EF363E2FFA31F71CF9DE5384E71B81C0AC4DFF" +
		"E0C10E64F"

	rfc5114G = "" +
		"AC4032EF4F2D9AE39DF30B5C8FFDAC506CDEBE7B89998CAF74866A08CFE4FFE" +
		"3A6824A4E10B9A6F0DD921F01A70C4AFAAB739D7700C29F52C57DB17C620A86" +
		"52BE5E9001A8D66AD7C17669101999024AF4D027275AC1348BB8A762D0521BC" +
		"98AE247150422EA1ED409939D54DA7460CDB5F6C6B250717CBEF180EB34118E" +
		"98D119529A45D6F834566E3025E316A330EFBB77A86F0C1AB15B051AE3D428C" +
		"8F8ACB70A8137150B8EEB10E183EDD19963DDD9E263E4770589EF6AA21E7F5F" +
		"2FF381B539CCE3409D13CD566AFBB48D6C019181E1BCFE94B30269EDFE72FE9" +
		"B6AA4BD7B5A0F1C71CFFF4C19C418E1F6EC017981BC087F2A7065B384B890D3" +
		"191F2BFA"

	rfc5114Q = "" +
		"801C0D34C58D93FE997177101F80535A4738CEBCBF389A99B36371EB6C1E1F43"
)
